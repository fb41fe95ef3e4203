package nifti

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"
)

const (
	// HeaderSize is sizeof_hdr for NIfTI-1
	HeaderSize = 348

	// minVoxOffset is the header plus the 4 byte extension flag
	minVoxOffset = HeaderSize + 4

	nifti2HeaderSize = 540
)

var (
	magicSingle = [4]byte{'n', '+', '1', 0}
	magicPair   = [4]byte{'n', 'i', '1', 0}
)

// Nifti1Header mirrors the on-disk NIfTI-1 header field for field
type Nifti1Header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XYZTUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// Extension is one header extension block. Data is kept byte for byte,
// including any trailing padding.
type Extension struct {
	Code int32
	Data []byte
}

// size is the on-disk esize, rounded up to a multiple of 16
func (e Extension) size() int {
	n := 8 + len(e.Data)
	return (n + 15) &^ 15
}

// Header is a parsed NIfTI-1 header plus its extensions
type Header struct {
	Nifti1Header

	Extensions []Extension

	// ByteOrder is the order the header was read in
	ByteOrder binary.ByteOrder
}

// NewHeader returns a header for an unscaled uint8 volume with unit spacing
// and an identity sform
func NewHeader(nx, ny, nz int) *Header {
	h := &Header{ByteOrder: binary.LittleEndian}
	h.SizeofHdr = HeaderSize
	h.Regular = 'r'
	h.Dim = [8]int16{3, int16(nx), int16(ny), int16(nz), 1, 1, 1, 1}
	h.Datatype = DTUint8
	h.Bitpix = 8
	h.Pixdim = [8]float32{1, 1, 1, 1, 1, 1, 1, 1}
	h.VoxOffset = minVoxOffset
	h.SclSlope = 1
	h.XYZTUnits = 2 // mm
	h.SformCode = 1
	h.SrowX = [4]float32{1, 0, 0, 0}
	h.SrowY = [4]float32{0, 1, 0, 0}
	h.SrowZ = [4]float32{0, 0, 1, 0}
	h.Magic = magicSingle
	return h
}

// Extents returns the three spatial extents (dim[1], dim[2], dim[3])
func (h *Header) Extents() (nx, ny, nz int) {
	return int(h.Dim[1]), int(h.Dim[2]), int(h.Dim[3])
}

// Description returns the descrip field as a string
func (h *Header) Description() string {
	return cString(h.Descrip[:])
}

// Scaling returns the slope and intercept applied to stored values. ok is false
// when the header asks for no scaling.
func (h *Header) Scaling() (slope, inter float64, ok bool) {
	slope, inter = float64(h.SclSlope), float64(h.SclInter)
	if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 1, 0, false
	}
	if math.IsNaN(inter) || math.IsInf(inter, 0) {
		inter = 0
	}
	if slope == 1 && inter == 0 {
		return 1, 0, false
	}
	return slope, inter, true
}

// validate3D checks that the header describes a 3D scalar volume
func (h *Header) validate3D() error {
	rank := int(h.Dim[0])
	if rank < 1 || rank > 7 {
		return errors.Wrapf(ErrFormat, "dim[0]=%d", rank)
	}
	if rank < 3 {
		return errors.Wrapf(ErrUnsupported, "%dD image, need 3D", rank)
	}
	for i := 1; i <= 3; i++ {
		if h.Dim[i] < 1 {
			return errors.Wrapf(ErrFormat, "dim[%d]=%d", i, h.Dim[i])
		}
	}
	for i := 4; i <= rank; i++ {
		if h.Dim[i] > 1 {
			return errors.Wrapf(ErrUnsupported, "dim[%d]=%d, only 3D volumes are handled", i, h.Dim[i])
		}
	}
	return nil
}

// dataSize returns the number of voxel bytes following vox_offset
func (h *Header) dataSize() (int, error) {
	dt, err := lookupDatatype(h.Datatype)
	if err != nil {
		return 0, err
	}
	if h.Bitpix != dt.bitpix {
		return 0, errors.Wrapf(ErrFormat, "bitpix %d does not match datatype %s", h.Bitpix, dt.name)
	}
	nx, ny, nz := h.Extents()
	return nx * ny * nz * int(dt.bitpix/8), nil
}

// readHeader parses the header and extensions and leaves r positioned at vox_offset
func readHeader(r io.Reader) (*Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(ErrFormat, "file shorter than a NIfTI-1 header")
		}
		return nil, errors.Wrap(err, "read header")
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(buf[:4]) == HeaderSize:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(buf[:4]) == HeaderSize:
		order = binary.BigEndian
	case binary.LittleEndian.Uint32(buf[:4]) == nifti2HeaderSize,
		binary.BigEndian.Uint32(buf[:4]) == nifti2HeaderSize:
		return nil, errors.Wrap(ErrUnsupported, "NIfTI-2 files are not supported")
	default:
		return nil, errors.Wrap(ErrFormat, "bad sizeof_hdr")
	}

	h := &Header{ByteOrder: order}
	if err := binary.Read(bytes.NewReader(buf[:]), order, &h.Nifti1Header); err != nil {
		return nil, errors.Wrap(ErrFormat, err.Error())
	}

	switch h.Magic {
	case magicSingle:
	case magicPair:
		return nil, errors.Wrap(ErrUnsupported, "separate .hdr/.img pairs are not supported")
	default:
		return nil, errors.Wrapf(ErrFormat, "bad magic %q", h.Magic[:])
	}

	if err := h.validate3D(); err != nil {
		return nil, err
	}

	voxOffset := int(h.VoxOffset)
	if float32(voxOffset) != h.VoxOffset || voxOffset < minVoxOffset {
		return nil, errors.Wrapf(ErrFormat, "vox_offset %v", h.VoxOffset)
	}

	var extender [4]byte
	if _, err := io.ReadFull(r, extender[:]); err != nil {
		return nil, errors.Wrap(ErrFormat, "missing extension flag")
	}
	pos := minVoxOffset

	if extender[0] != 0 {
		for pos+8 <= voxOffset {
			var head [8]byte
			if _, err := io.ReadFull(r, head[:]); err != nil {
				return nil, errors.Wrap(ErrFormat, "truncated extension")
			}
			esize := int(int32(order.Uint32(head[:4])))
			code := int32(order.Uint32(head[4:]))
			if esize < 8 || pos+esize > voxOffset {
				return nil, errors.Wrapf(ErrFormat, "extension size %d", esize)
			}
			data := make([]byte, esize-8)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, errors.Wrap(ErrFormat, "truncated extension")
			}
			h.Extensions = append(h.Extensions, Extension{Code: code, Data: data})
			pos += esize
		}
	}

	if skip := int64(voxOffset - pos); skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, errors.Wrap(ErrFormat, "file ends before vox_offset")
		}
	}

	return h, nil
}

// writeHeader serializes h in little endian followed by its extensions and
// padding up to vox_offset, which it recomputes
func writeHeader(w io.Writer, h *Header) error {
	out := h.Nifti1Header
	out.SizeofHdr = HeaderSize
	out.Magic = magicSingle

	extBytes := 0
	for _, ext := range h.Extensions {
		extBytes += ext.size()
	}
	out.VoxOffset = float32(minVoxOffset + extBytes)

	if err := binary.Write(w, binary.LittleEndian, &out); err != nil {
		return errors.Wrap(err, "write header")
	}

	var extender [4]byte
	if len(h.Extensions) > 0 {
		extender[0] = 1
	}
	if _, err := w.Write(extender[:]); err != nil {
		return errors.Wrap(err, "write header")
	}

	for _, ext := range h.Extensions {
		block := make([]byte, ext.size())
		binary.LittleEndian.PutUint32(block[:4], uint32(len(block)))
		binary.LittleEndian.PutUint32(block[4:8], uint32(ext.Code))
		copy(block[8:], ext.Data)
		if _, err := w.Write(block); err != nil {
			return errors.Wrap(err, "write extension")
		}
	}
	return nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
