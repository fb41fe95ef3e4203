package nifti

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// NIfTI-1 datatype codes handled by this package
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
	DTInt8    int16 = 256
	DTUint16  int16 = 512
	DTUint32  int16 = 768
	DTInt64   int16 = 1024
	DTUint64  int16 = 1280
)

// decoder returns the stored value of sample i from raw voxel bytes
type decoder func(data []byte, order binary.ByteOrder, i int) float64

type datatype struct {
	name   string
	bitpix int16
	decode decoder
}

var datatypes = map[int16]datatype{
	DTUint8: {"uint8", 8, func(d []byte, _ binary.ByteOrder, i int) float64 {
		return float64(d[i])
	}},
	DTInt8: {"int8", 8, func(d []byte, _ binary.ByteOrder, i int) float64 {
		return float64(int8(d[i]))
	}},
	DTInt16: {"int16", 16, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(int16(o.Uint16(d[2*i:])))
	}},
	DTUint16: {"uint16", 16, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(o.Uint16(d[2*i:]))
	}},
	DTInt32: {"int32", 32, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(int32(o.Uint32(d[4*i:])))
	}},
	DTUint32: {"uint32", 32, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(o.Uint32(d[4*i:]))
	}},
	DTInt64: {"int64", 64, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(int64(o.Uint64(d[8*i:])))
	}},
	DTUint64: {"uint64", 64, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(o.Uint64(d[8*i:]))
	}},
	DTFloat32: {"float32", 32, func(d []byte, o binary.ByteOrder, i int) float64 {
		return float64(math.Float32frombits(o.Uint32(d[4*i:])))
	}},
	DTFloat64: {"float64", 64, func(d []byte, o binary.ByteOrder, i int) float64 {
		return math.Float64frombits(o.Uint64(d[8*i:]))
	}},
}

func lookupDatatype(code int16) (datatype, error) {
	dt, ok := datatypes[code]
	if !ok {
		return datatype{}, errors.Wrapf(ErrUnsupported, "datatype %d", code)
	}
	return dt, nil
}

// DatatypeName returns a readable name for a datatype code
func DatatypeName(code int16) string {
	if dt, ok := datatypes[code]; ok {
		return dt.name
	}
	return "unknown"
}
