package volume

import (
	"bufio"
	"io"
	"os"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"voxmask/internal/models"
)

// LoadFlat reads a headerless uint8 raw file holding exactly D*H*W samples in
// ZYX-flat order. Samples are returned unchanged.
func LoadFlat(path string, dims models.Dims) (models.ZYXVolume, error) {
	if err := dims.Validate(); err != nil {
		return models.ZYXVolume{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return models.ZYXVolume{}, errors.Wrap(err, "open raw volume")
	}
	defer f.Close()

	vol, err := ReadFlat(bufio.NewReader(f), dims)
	if err != nil {
		var mismatch *SizeMismatchError
		if errors.As(err, &mismatch) {
			mismatch.Path = path
			return models.ZYXVolume{}, mismatch
		}
		return models.ZYXVolume{}, errors.Wrapf(err, "load %s", path)
	}
	return vol, nil
}

// ReadFlat reads exactly D*H*W bytes from r. A short stream or trailing bytes
// fail with *SizeMismatchError.
func ReadFlat(r io.Reader, dims models.Dims) (models.ZYXVolume, error) {
	if err := dims.Validate(); err != nil {
		return models.ZYXVolume{}, err
	}

	vol := models.NewZYXVolume(dims)
	want := int64(len(vol.Data))

	n, err := io.ReadFull(r, vol.Data)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return models.ZYXVolume{}, &SizeMismatchError{Got: int64(n), Want: want}
	case err != nil:
		return models.ZYXVolume{}, errors.Wrap(err, "read raw volume")
	}

	extra, err := io.Copy(io.Discard, r)
	if err != nil {
		return models.ZYXVolume{}, errors.Wrap(err, "read raw volume")
	}
	if extra > 0 {
		return models.ZYXVolume{}, &SizeMismatchError{Got: want + extra, Want: want}
	}

	return vol, nil
}

// WriteFlat writes the volume as ZYX-flat bytes with no header. The file is
// staged next to path and renamed into place once fully written, so a failed
// write never leaves a truncated output behind.
func WriteFlat(vol models.ZYXVolume, path string) error {
	if len(vol.Data) != vol.Len() {
		return &SizeMismatchError{Path: path, Got: int64(len(vol.Data)), Want: int64(vol.Len())}
	}

	if err := renameio.WriteFile(path, vol.Data, 0o644); err != nil {
		return errors.Wrapf(err, "write raw volume %s", path)
	}
	return nil
}
