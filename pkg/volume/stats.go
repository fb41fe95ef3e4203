package volume

import (
	"github.com/pkg/errors"

	"voxmask/internal/models"
)

// CountOnes returns the number of nonzero samples
func CountOnes(data []uint8) int {
	n := 0
	for _, s := range data {
		if s != 0 {
			n++
		}
	}
	return n
}

// DiffCount returns how many samples differ between a and b
func DiffCount(a, b models.ZYXVolume) (int, error) {
	if a.Dims != b.Dims || len(a.Data) != len(b.Data) {
		return 0, errors.Wrapf(ErrDimsMismatch, "%+v vs %+v", a.Dims, b.Dims)
	}

	n := 0
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			n++
		}
	}
	return n, nil
}

// IsBinary reports whether every sample is 0 or 1
func IsBinary(data []uint8) bool {
	for _, s := range data {
		if s > 1 {
			return false
		}
	}
	return true
}
