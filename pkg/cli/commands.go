package cli

import (
	"flag"

	"voxmask/internal/models"
	"voxmask/pkg/volume"
)

// Usage lines
const (
	RawToThinnedUsage = "usage: raw2thin [--config file] [-v] [--profile] in.raw D H W out.raw"
	ImageToRawUsage   = "usage: nifti2raw [--config file] [-v] in_image out.raw [--threshold T]"
	RawToImageUsage   = "usage: raw2nifti [--config file] [-v] in.raw D H W ref_image out_image"
)

// RawToThinnedOptions configures raw2thin
type RawToThinnedOptions struct {
	Common
	In      string
	Dims    models.Dims
	Out     string
	Profile bool
}

// ParseRawToThinned parses `in.raw D H W out.raw`
func ParseRawToThinned(args []string) (RawToThinnedOptions, error) {
	var opts RawToThinnedOptions
	fs := NewFlagSet("raw2thin")
	opts.register(fs)
	fs.BoolVar(&opts.Profile, "profile", false, "print per stage timings")

	pos, err := Parse(fs, args, 5)
	if err != nil {
		return opts, err
	}
	if opts.Dims, err = ParseDims(pos[1], pos[2], pos[3]); err != nil {
		return opts, err
	}
	opts.In, opts.Out = pos[0], pos[4]
	return opts, nil
}

// ImageToRawOptions configures nifti2raw
type ImageToRawOptions struct {
	Common
	In  string
	Out string

	// Threshold is nil when the nonzero test should be used
	Threshold *float64
}

// Mode returns the binarization mode selected on the command line
func (o ImageToRawOptions) Mode() volume.Mode {
	if o.Threshold != nil {
		return volume.ThresholdTest(*o.Threshold)
	}
	return volume.NonzeroTest()
}

// ParseImageToRaw parses `in_image out.raw [--threshold T]`
func ParseImageToRaw(args []string) (ImageToRawOptions, error) {
	var opts ImageToRawOptions
	var threshold float64
	fs := NewFlagSet("nifti2raw")
	opts.register(fs)
	fs.Float64Var(&threshold, "threshold", 0, "binarize by value > T instead of value != 0")

	pos, err := Parse(fs, args, 2)
	if err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			opts.Threshold = &threshold
		}
	})
	opts.In, opts.Out = pos[0], pos[1]
	return opts, nil
}

// RawToImageOptions configures raw2nifti
type RawToImageOptions struct {
	Common
	In   string
	Dims models.Dims
	Ref  string
	Out  string
}

// ParseRawToImage parses `in.raw D H W ref_image out_image`
func ParseRawToImage(args []string) (RawToImageOptions, error) {
	var opts RawToImageOptions
	fs := NewFlagSet("raw2nifti")
	opts.register(fs)

	pos, err := Parse(fs, args, 6)
	if err != nil {
		return opts, err
	}
	if opts.Dims, err = ParseDims(pos[1], pos[2], pos[3]); err != nil {
		return opts, err
	}
	opts.In, opts.Ref, opts.Out = pos[0], pos[4], pos[5]
	return opts, nil
}
