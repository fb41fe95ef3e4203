package nifti

import (
	"bufio"
	"io"
	"math"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"voxmask/internal/models"
)

// Codec loads and saves NIfTI-1 files. Output is gzip compressed when the
// destination path ends in .gz.
type Codec struct {
	// CompressionLevel is the gzip level for .nii.gz output. Zero selects
	// gzip.DefaultCompression.
	CompressionLevel int
}

// ReadFile decodes the header and voxel data of a .nii or .nii.gz file
func (c Codec) ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	r, closer, err := openStream(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	defer closer()

	h, err := readHeader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	n, err := h.dataSize()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrapf(ErrFormat, "read %s: truncated voxel data", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	im, err := newImage(h, data)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return im, nil
}

// ReadHeaderFile decodes only the header and extensions of a NIfTI file
func (c Codec) ReadHeaderFile(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	r, closer, err := openStream(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	defer closer()

	h, err := readHeader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return h, nil
}

// WriteFile stores vol as an unscaled uint8 volume. Every header field and
// extension of ref is copied unchanged except dim, datatype, bitpix,
// vox_offset, scl_slope and scl_inter. A nil ref gets NewHeader defaults.
func (c Codec) WriteFile(path string, vol models.XYZVolume, ref *Header) error {
	if len(vol.Data) != vol.NX*vol.NY*vol.NZ {
		return errors.Errorf("write %s: volume holds %d samples, extents need %d",
			path, len(vol.Data), vol.NX*vol.NY*vol.NZ)
	}
	for _, n := range []int{vol.NX, vol.NY, vol.NZ} {
		if n < 1 || n > math.MaxInt16 {
			return errors.Wrapf(ErrUnsupported, "write %s: extent %d", path, n)
		}
	}

	h := outputHeader(vol, ref)
	data := toFileOrder(vol)

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer pf.Cleanup()

	bw := bufio.NewWriter(pf)
	var w io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		level := c.CompressionLevel
		if level == 0 {
			level = gzip.DefaultCompression
		}
		gz, err = gzip.NewWriterLevel(bw, level)
		if err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
		w = gz
	}

	if err := writeHeader(w, h); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

func outputHeader(vol models.XYZVolume, ref *Header) *Header {
	if ref == nil {
		return NewHeader(vol.NX, vol.NY, vol.NZ)
	}

	h := &Header{
		Nifti1Header: ref.Nifti1Header,
		Extensions:   append([]Extension(nil), ref.Extensions...),
		ByteOrder:    ref.ByteOrder,
	}
	h.Dim = [8]int16{3, int16(vol.NX), int16(vol.NY), int16(vol.NZ), 1, 1, 1, 1}
	h.Datatype = DTUint8
	h.Bitpix = 8
	h.SclSlope = 1
	h.SclInter = 0
	return h
}

// toFileOrder lays native samples out with X fastest, as NIfTI stores them
func toFileOrder(vol models.XYZVolume) []byte {
	out := make([]byte, len(vol.Data))
	i := 0
	for x := 0; x < vol.NX; x++ {
		for y := 0; y < vol.NY; y++ {
			for z := 0; z < vol.NZ; z++ {
				out[x+vol.NX*(y+vol.NY*z)] = vol.Data[i]
				i++
			}
		}
	}
	return out
}

// openStream returns a reader over the decompressed file contents. gzip is
// detected from the stream magic rather than the file name.
func openStream(f io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, errors.Wrap(ErrFormat, err.Error())
		}
		return gz, func() { gz.Close() }, nil
	}
	return br, func() {}, nil
}
