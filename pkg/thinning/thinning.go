// Package thinning wraps topology preserving 3D thinning. The thinning itself
// is always performed by an external implementation; this package only moves
// volumes in and out of it and checks what comes back.
package thinning

import (
	"context"

	"github.com/pkg/errors"

	"voxmask/internal/models"
	"voxmask/pkg/volume"
)

// ErrContract is returned when a thinning implementation hands back a volume
// with different extents, samples outside {0,1} or foreground the input lacks
var ErrContract = errors.New("thinning result violates contract")

// Spacing is the physical voxel size along X, Y and Z
type Spacing [3]float64

// UnitSpacing is 1 along every axis
var UnitSpacing = Spacing{1, 1, 1}

// Operator thins a binary ZYX-flat volume. Implementations must return a
// volume with the same extents and values in {0,1} whose foreground is a
// subset of the input foreground.
type Operator interface {
	Thin(ctx context.Context, vol models.ZYXVolume, spacing Spacing) (models.ZYXVolume, error)
}

// Func adapts an ordinary function to Operator
type Func func(ctx context.Context, vol models.ZYXVolume, spacing Spacing) (models.ZYXVolume, error)

// Thin calls f
func (f Func) Thin(ctx context.Context, vol models.ZYXVolume, spacing Spacing) (models.ZYXVolume, error) {
	return f(ctx, vol, spacing)
}

// CheckResult verifies out against the contract for input in
func CheckResult(in, out models.ZYXVolume) error {
	if out.Dims != in.Dims || len(out.Data) != in.Len() {
		return errors.Wrapf(ErrContract, "extents %+v (%d samples), expected %+v",
			out.Dims, len(out.Data), in.Dims)
	}
	if !volume.IsBinary(out.Data) {
		return errors.Wrap(ErrContract, "samples outside {0,1}")
	}
	for i, s := range out.Data {
		if s != 0 && in.Data[i] == 0 {
			z, rem := i/(in.H*in.W), i%(in.H*in.W)
			return errors.Wrapf(ErrContract, "foreground added at (z=%d, y=%d, x=%d)", z, rem/in.W, rem%in.W)
		}
	}
	return nil
}
