package nifti

import (
	"encoding/binary"
)

// Image is a decoded 3D volume. Samples are stored as in the file, X fastest,
// and are decoded and scaled on access.
type Image struct {
	Header *Header

	nx, ny, nz int
	data       []byte
	order      binary.ByteOrder
	decode     decoder

	slope, inter float64
	scaled       bool
}

func newImage(h *Header, data []byte) (*Image, error) {
	dt, err := lookupDatatype(h.Datatype)
	if err != nil {
		return nil, err
	}
	nx, ny, nz := h.Extents()
	slope, inter, scaled := h.Scaling()

	return &Image{
		Header: h,
		nx:     nx,
		ny:     ny,
		nz:     nz,
		data:   data,
		order:  h.ByteOrder,
		decode: dt.decode,
		slope:  slope,
		inter:  inter,
		scaled: scaled,
	}, nil
}

// Extents returns the number of voxels along X, Y and Z
func (im *Image) Extents() (nx, ny, nz int) {
	return im.nx, im.ny, im.nz
}

// At returns the scaled sample value at voxel (x, y, z)
func (im *Image) At(x, y, z int) float64 {
	v := im.decode(im.data, im.order, x+im.nx*(y+im.ny*z))
	if im.scaled {
		v = v*im.slope + im.inter
	}
	return v
}
