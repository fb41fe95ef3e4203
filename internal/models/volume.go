package models

import (
	"math"

	"github.com/pkg/errors"
)

// ErrInvalidDims is returned when volume extents are not all positive or
// their product cannot be addressed.
var ErrInvalidDims = errors.New("invalid volume dimensions")

// Dims holds the extents of a volume in ZYX order
type Dims struct {
	// D is the depth, the slowest varying axis (Z)
	D int

	// H is the row extent (Y)
	H int

	// W is the column extent, the fastest varying axis (X)
	W int
}

// Len returns the number of samples a volume with these extents holds
func (d Dims) Len() int {
	return d.D * d.H * d.W
}

// Validate checks that every extent is positive and that D*H*W fits in an int
func (d Dims) Validate() error {
	if d.D <= 0 || d.H <= 0 || d.W <= 0 {
		return errors.Wrapf(ErrInvalidDims, "D=%d H=%d W=%d", d.D, d.H, d.W)
	}
	if d.H > math.MaxInt/d.D || d.W > math.MaxInt/(d.D*d.H) {
		return errors.Wrapf(ErrInvalidDims, "D=%d H=%d W=%d overflows", d.D, d.H, d.W)
	}
	return nil
}

// InBounds reports whether (z, y, x) addresses a sample inside the extents
func (d Dims) InBounds(z, y, x int) bool {
	return uint(z) < uint(d.D) && uint(y) < uint(d.H) && uint(x) < uint(d.W)
}

// ZYXVolume is a volume in ZYX-flat layout: idx = (z*H + y)*W + x, so X varies
// fastest and Z slowest. This is the layout of raw mask files.
type ZYXVolume struct {
	Dims

	// Data holds D*H*W samples
	Data []uint8
}

// NewZYXVolume allocates a zeroed volume with the given extents
func NewZYXVolume(dims Dims) ZYXVolume {
	return ZYXVolume{Dims: dims, Data: make([]uint8, dims.Len())}
}

// Index returns the flat offset of (z, y, x)
func (v ZYXVolume) Index(z, y, x int) int {
	return (z*v.H+y)*v.W + x
}

// At returns the sample at (z, y, x)
func (v ZYXVolume) At(z, y, x int) uint8 {
	return v.Data[v.Index(z, y, x)]
}

// Set stores a sample at (z, y, x)
func (v ZYXVolume) Set(z, y, x int, value uint8) {
	v.Data[v.Index(z, y, x)] = value
}

// XYZVolume is a volume in native imaging order. Axes nest as (X, Y, Z), the
// reverse of ZYXVolume: idx = (x*NY + y)*NZ + z.
//
// For a volume converted from ZYX extents (D, H, W) the native extents are
// NX=W, NY=H, NZ=D.
type XYZVolume struct {
	NX, NY, NZ int

	// Data holds NX*NY*NZ samples
	Data []uint8
}

// NewXYZVolume allocates a zeroed native volume
func NewXYZVolume(nx, ny, nz int) XYZVolume {
	return XYZVolume{NX: nx, NY: ny, NZ: nz, Data: make([]uint8, nx*ny*nz)}
}

// Index returns the flat offset of (x, y, z)
func (v XYZVolume) Index(x, y, z int) int {
	return (x*v.NY+y)*v.NZ + z
}

// At returns the sample at (x, y, z)
func (v XYZVolume) At(x, y, z int) uint8 {
	return v.Data[v.Index(x, y, z)]
}

// Set stores a sample at (x, y, z)
func (v XYZVolume) Set(x, y, z int, value uint8) {
	v.Data[v.Index(x, y, z)] = value
}

// Dims returns the ZYX extents this native volume corresponds to
func (v XYZVolume) Dims() Dims {
	return Dims{D: v.NZ, H: v.NY, W: v.NX}
}
