// Package visualization renders orthogonal slices of binary masks as images
// so thinning results can be inspected without a volume viewer.
package visualization

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"voxmask/internal/models"
)

var (
	// ErrAxis is returned for an axis other than x, y or z
	ErrAxis = errors.New("invalid axis")

	// ErrPosition is returned when a slice or region lies outside the volume
	ErrPosition = errors.New("position out of range")

	// ErrFormat is returned when no encoder matches the file extension
	ErrFormat = errors.New("unsupported image format")
)

// Viewer extracts slices from a ZYX-flat mask
type Viewer struct {
	vol models.ZYXVolume

	// scale is the number of pixels per voxel edge in rendered slices
	scale int
}

// NewViewer creates a viewer over vol. Scale values below 1 are treated as 1.
func NewViewer(vol models.ZYXVolume, scale int) *Viewer {
	if scale < 1 {
		scale = 1
	}
	return &Viewer{vol: vol, scale: scale}
}

// Extent returns the number of slices along axis
func (v *Viewer) Extent(axis string) (int, error) {
	switch strings.ToLower(axis) {
	case "x":
		return v.vol.W, nil
	case "y":
		return v.vol.H, nil
	case "z":
		return v.vol.D, nil
	default:
		return 0, errors.Wrapf(ErrAxis, "%q (must be x, y, or z)", axis)
	}
}

// ExtractSlice renders the plane at position along axis. Foreground voxels are
// white, background black. An x slice is laid out with z horizontal and y
// vertical, a y slice with x horizontal and z vertical, a z slice with x
// horizontal and y vertical.
func (v *Viewer) ExtractSlice(axis string, position int) (*image.Gray, error) {
	n, err := v.Extent(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, errors.Wrapf(ErrPosition, "%s=%d not in [0, %d)", axis, position, n)
	}

	var cols, rows int
	var at func(c, r int) uint8

	switch strings.ToLower(axis) {
	case "x":
		// YZ plane
		cols, rows = v.vol.D, v.vol.H
		at = func(c, r int) uint8 { return v.vol.At(c, r, position) }
	case "y":
		// XZ plane
		cols, rows = v.vol.W, v.vol.D
		at = func(c, r int) uint8 { return v.vol.At(r, position, c) }
	default:
		// XY plane
		cols, rows = v.vol.W, v.vol.H
		at = func(c, r int) uint8 { return v.vol.At(position, r, c) }
	}

	img := image.NewGray(image.Rect(0, 0, cols*v.scale, rows*v.scale))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if at(c, r) == 0 {
				continue
			}
			for dy := 0; dy < v.scale; dy++ {
				for dx := 0; dx < v.scale; dx++ {
					img.SetGray(c*v.scale+dx, r*v.scale+dy, color.Gray{Y: 255})
				}
			}
		}
	}

	return img, nil
}

// ExtractRegion copies the sub-volume starting at (z, y, x) with extents size
func (v *Viewer) ExtractRegion(z, y, x int, size models.Dims) (models.ZYXVolume, error) {
	if err := size.Validate(); err != nil {
		return models.ZYXVolume{}, err
	}
	if z < 0 || y < 0 || x < 0 ||
		z+size.D > v.vol.D || y+size.H > v.vol.H || x+size.W > v.vol.W {
		return models.ZYXVolume{}, errors.Wrapf(ErrPosition,
			"region at (%d, %d, %d) size %dx%dx%d exceeds %dx%dx%d",
			z, y, x, size.D, size.H, size.W, v.vol.D, v.vol.H, v.vol.W)
	}

	region := models.NewZYXVolume(size)
	for dz := 0; dz < size.D; dz++ {
		for dy := 0; dy < size.H; dy++ {
			src := v.vol.Index(z+dz, y+dy, x)
			dst := region.Index(dz, dy, 0)
			copy(region.Data[dst:dst+size.W], v.vol.Data[src:src+size.W])
		}
	}

	return region, nil
}

// Encode writes img in the format named by ext (".png", ".jpg", ".jpeg",
// ".tif", ".tiff" or ".bmp")
func Encode(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return errors.Wrapf(ErrFormat, "%q", ext)
	}
}

// SaveSlice saves an extracted slice, choosing the encoder from the filename
// extension. The file is replaced atomically.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	ext := filepath.Ext(filename)
	if err := Encode(io.Discard, image.NewGray(image.Rect(0, 0, 1, 1)), ext); err != nil {
		return err
	}

	f, err := renameio.NewPendingFile(filename, renameio.WithPermissions(0o644))
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer f.Cleanup()

	bw := bufio.NewWriter(f)
	if err := Encode(bw, img, ext); err != nil {
		return errors.Wrapf(err, "encode %s", filename)
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}
	return errors.Wrapf(f.CloseAtomicallyReplace(), "replace %s", filename)
}

// SaveSliceSequence extracts and saves every slice along axis into outputDir,
// named slice_<axis>_<pos><ext>. It returns the number of files written.
func (v *Viewer) SaveSliceSequence(axis, outputDir, ext string) (int, error) {
	n, err := v.Extent(axis)
	if err != nil {
		return 0, err
	}
	if ext == "" {
		ext = ".png"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "create %s", outputDir)
	}

	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return pos, err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d%s", strings.ToLower(axis), pos, ext))
		if err := v.SaveSlice(img, filename); err != nil {
			return pos, err
		}
	}

	return n, nil
}
