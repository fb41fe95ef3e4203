package convert

import (
	"github.com/pkg/errors"

	"voxmask/internal/models"
	"voxmask/pkg/nifti"
	"voxmask/pkg/volume"
)

// ErrForeignHeader is returned when a header from another codec is passed to Save
var ErrForeignHeader = errors.New("reference header was not produced by this codec")

// NIfTICodec is the ImageCodec for NIfTI-1 files
type NIfTICodec struct {
	nifti.Codec
}

// Load implements ImageCodec
func (c NIfTICodec) Load(path string) (volume.SampleGrid, error) {
	im, err := c.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return im, nil
}

// ReadHeader implements ImageCodec
func (c NIfTICodec) ReadHeader(path string) (Header, error) {
	h, err := c.ReadHeaderFile(path)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Save implements ImageCodec
func (c NIfTICodec) Save(path string, vol models.XYZVolume, ref Header) error {
	var h *nifti.Header
	if ref != nil {
		var ok bool
		if h, ok = ref.(*nifti.Header); !ok {
			return errors.Wrapf(ErrForeignHeader, "%T", ref)
		}
	}
	return c.WriteFile(path, vol, h)
}
