// Package convert implements the three mask conversions: raw to thinned raw,
// imaging container to raw, and raw to imaging container.
//
// Every conversion reads and validates all of its inputs before the single
// output file is written, and the write itself is atomic.
package convert

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"voxmask/internal/models"
	"voxmask/pkg/thinning"
	"voxmask/pkg/volume"
)

// Header is opaque imaging metadata taken from a reference file. Converters
// never look inside it beyond its extents.
type Header interface {
	Extents() (nx, ny, nz int)
}

// ImageCodec loads and saves an imaging container format
type ImageCodec interface {
	// Load decodes the volume at path in native (X, Y, Z) order
	Load(path string) (volume.SampleGrid, error)

	// ReadHeader decodes only the metadata of the file at path
	ReadHeader(path string) (Header, error)

	// Save writes vol to path carrying over the metadata of ref
	Save(path string, vol models.XYZVolume, ref Header) error
}

// Timings records how long each stage of a conversion took
type Timings struct {
	Load      time.Duration
	Binarize  time.Duration
	Transform time.Duration
	Write     time.Duration
}

// Summary describes a finished conversion
type Summary struct {
	Output string

	// Dims are the ZYX extents of the converted volume
	Dims models.Dims

	// OnesIn and OnesOut count nonzero samples before and after the
	// transforming step
	OnesIn  int
	OnesOut int

	Timings Timings
}

// Converter runs conversions against an image codec and a thinning backend.
// Either may be nil when the conversions that need it are not used.
type Converter struct {
	Codec   ImageCodec
	Thinner thinning.Operator
	Spacing thinning.Spacing
	Logger  *zap.SugaredLogger
}

func (c *Converter) log() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}

// RawToThinned loads a raw mask, binarizes it with the nonzero test, thins it
// and writes the skeleton as raw
func (c *Converter) RawToThinned(ctx context.Context, in string, dims models.Dims, out string) (Summary, error) {
	if c.Thinner == nil {
		return Summary{}, errors.New("no thinning backend configured")
	}
	log := c.log()
	sum := Summary{Output: out, Dims: dims}

	start := time.Now()
	vol, err := volume.LoadFlat(in, dims)
	if err != nil {
		return Summary{}, err
	}
	sum.Timings.Load = time.Since(start)

	start = time.Now()
	mask := volume.Binarize(vol, volume.NonzeroTest())
	sum.OnesIn = volume.CountOnes(mask.Data)
	sum.Timings.Binarize = time.Since(start)
	log.Debugw("Binarized input", "path", in, "dims", dims, "ones", sum.OnesIn)

	spacing := c.Spacing
	if spacing == (thinning.Spacing{}) {
		spacing = thinning.UnitSpacing
	}

	start = time.Now()
	thin, err := c.Thinner.Thin(ctx, mask, spacing)
	if err != nil {
		return Summary{}, errors.Wrap(err, "thinning")
	}
	if err := thinning.CheckResult(mask, thin); err != nil {
		return Summary{}, err
	}
	sum.OnesOut = volume.CountOnes(thin.Data)
	sum.Timings.Transform = time.Since(start)
	log.Debugw("Thinned volume", "ones", sum.OnesOut, "elapsed", sum.Timings.Transform)

	start = time.Now()
	if err := volume.WriteFlat(thin, out); err != nil {
		return Summary{}, err
	}
	sum.Timings.Write = time.Since(start)

	return sum, nil
}

// ImageToRaw loads an imaging file, binarizes it with mode and writes the
// mask as ZYX-flat raw
func (c *Converter) ImageToRaw(in, out string, mode volume.Mode) (Summary, error) {
	if c.Codec == nil {
		return Summary{}, errors.New("no image codec configured")
	}
	log := c.log()
	sum := Summary{Output: out}

	start := time.Now()
	grid, err := c.Codec.Load(in)
	if err != nil {
		return Summary{}, err
	}
	sum.Timings.Load = time.Since(start)

	start = time.Now()
	native := volume.BinarizeNative(grid, mode)
	sum.Timings.Binarize = time.Since(start)
	log.Debugw("Binarized image", "path", in, "mode", mode.String(),
		"nx", native.NX, "ny", native.NY, "nz", native.NZ)

	start = time.Now()
	flat := volume.ToZYXFlat(native)
	sum.Timings.Transform = time.Since(start)
	sum.Dims = flat.Dims
	sum.OnesIn = volume.CountOnes(native.Data)
	sum.OnesOut = volume.CountOnes(flat.Data)

	start = time.Now()
	if err := volume.WriteFlat(flat, out); err != nil {
		return Summary{}, err
	}
	sum.Timings.Write = time.Since(start)

	return sum, nil
}

// RawToImage loads a raw volume and writes it as an imaging file whose
// metadata is copied from ref. Samples are passed through unchanged.
func (c *Converter) RawToImage(in string, dims models.Dims, ref, out string) (Summary, error) {
	if c.Codec == nil {
		return Summary{}, errors.New("no image codec configured")
	}
	log := c.log()
	sum := Summary{Output: out, Dims: dims}

	start := time.Now()
	header, err := c.Codec.ReadHeader(ref)
	if err != nil {
		return Summary{}, errors.Wrap(err, "reference image")
	}
	vol, err := volume.LoadFlat(in, dims)
	if err != nil {
		return Summary{}, err
	}
	sum.Timings.Load = time.Since(start)

	if nx, ny, nz := header.Extents(); nx != dims.W || ny != dims.H || nz != dims.D {
		log.Warnw("Reference extents differ from raw volume; output uses raw extents",
			"reference", []int{nx, ny, nz}, "raw", []int{dims.W, dims.H, dims.D})
	}

	start = time.Now()
	native := volume.ToNativeOrder(vol)
	sum.Timings.Transform = time.Since(start)
	sum.OnesIn = volume.CountOnes(vol.Data)
	sum.OnesOut = volume.CountOnes(native.Data)

	start = time.Now()
	if err := c.Codec.Save(out, native, header); err != nil {
		return Summary{}, err
	}
	sum.Timings.Write = time.Since(start)

	return sum, nil
}
