// Package nifti reads and writes single-file NIfTI-1 volumes (.nii, .nii.gz).
//
// Only the pieces needed to move 3D scalar volumes are supported: the 348 byte
// header, header extensions (kept verbatim), scalar datatypes and linear
// intensity scaling.
package nifti

import "github.com/pkg/errors"

var (
	// ErrFormat is returned when a file is not a well formed NIfTI-1 container
	ErrFormat = errors.New("nifti: malformed file")

	// ErrUnsupported is returned for valid files using features this package does not handle
	ErrUnsupported = errors.New("nifti: unsupported feature")
)
