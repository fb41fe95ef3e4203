// Package volume converts binary mask volumes between the ZYX-flat raw layout
// and the native (X, Y, Z) layout used by imaging containers.
package volume

import (
	"fmt"

	"github.com/pkg/errors"

	"voxmask/internal/models"
)

var (
	// ErrSizeMismatch matches any *SizeMismatchError
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrDimsMismatch is returned when two volumes that must share extents do not
	ErrDimsMismatch = errors.New("volume dimensions differ")

	// ErrInvalidDims is re-exported from models for callers of this package
	ErrInvalidDims = models.ErrInvalidDims
)

// SizeMismatchError reports a raw stream whose byte count is not exactly D*H*W
type SizeMismatchError struct {
	Path string
	Got  int64
	Want int64
}

func (e *SizeMismatchError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("size mismatch: got %d bytes, expected %d", e.Got, e.Want)
	}
	return fmt.Sprintf("size mismatch in %s: got %d bytes, expected %d", e.Path, e.Got, e.Want)
}

// Is makes errors.Is(err, ErrSizeMismatch) hold for wrapped mismatches
func (e *SizeMismatchError) Is(target error) bool {
	return target == ErrSizeMismatch
}
