package nifti

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"voxmask/internal/models"
)

// writeRawImage serializes a header and voxel bytes in the given byte order,
// bypassing Codec so the reader can be tested against hand-built files
func writeRawImage(t *testing.T, path string, h *Header, order binary.ByteOrder, data []byte, compress bool) {
	t.Helper()

	var buf bytes.Buffer
	h.SizeofHdr = HeaderSize
	if err := binary.Write(&buf, order, &h.Nifti1Header); err != nil {
		t.Fatalf("Failed to encode header: %v", err)
	}
	buf.Write(make([]byte, int(h.VoxOffset)-HeaderSize))
	buf.Write(data)

	out := buf.Bytes()
	if compress {
		var zbuf bytes.Buffer
		zw := gzip.NewWriter(&zbuf)
		zw.Write(out)
		zw.Close()
		out = zbuf.Bytes()
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
}

// TestHeaderSize verifies the Go struct matches the on-disk header layout
func TestHeaderSize(t *testing.T) {
	if got := binary.Size(Nifti1Header{}); got != HeaderSize {
		t.Errorf("Expected header size %d, got %d", HeaderSize, got)
	}
}

// TestWriteReadRoundTrip verifies samples, extents and header pass-through
func TestWriteReadRoundTrip(t *testing.T) {
	for _, name := range []string{"mask.nii", "mask.nii.gz"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()

			ref := NewHeader(9, 9, 9)
			copy(ref.Descrip[:], "reference scan")
			ref.Pixdim = [8]float32{1, 0.5, 0.75, 2, 1, 1, 1, 1}
			ref.SrowX = [4]float32{0.5, 0, 0, -10}
			ref.SrowY = [4]float32{0, 0.75, 0, 20}
			ref.SrowZ = [4]float32{0, 0, 2, 30}
			ref.QformCode = 1
			ref.QoffsetX = -10
			ref.Extensions = []Extension{{Code: 6, Data: []byte("comment extension")}}
			ref.Datatype = DTFloat32
			ref.Bitpix = 32
			ref.SclSlope = 2
			ref.SclInter = 5

			vol := models.NewXYZVolume(3, 2, 4)
			for i := range vol.Data {
				vol.Data[i] = uint8(i % 3)
			}

			path := filepath.Join(dir, name)
			codec := Codec{CompressionLevel: gzip.BestSpeed}
			if err := codec.WriteFile(path, vol, ref); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			im, err := codec.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}

			nx, ny, nz := im.Extents()
			if nx != 3 || ny != 2 || nz != 4 {
				t.Errorf("Expected extents 3x2x4, got %dx%dx%d", nx, ny, nz)
			}
			for x := 0; x < nx; x++ {
				for y := 0; y < ny; y++ {
					for z := 0; z < nz; z++ {
						if got, want := im.At(x, y, z), float64(vol.At(x, y, z)); got != want {
							t.Fatalf("Sample (%d,%d,%d): expected %v, got %v", x, y, z, want, got)
						}
					}
				}
			}

			h := im.Header
			if h.Description() != "reference scan" {
				t.Errorf("Expected description to be copied, got %q", h.Description())
			}
			if h.Datatype != DTUint8 || h.Bitpix != 8 {
				t.Errorf("Expected uint8 output, got datatype %d bitpix %d", h.Datatype, h.Bitpix)
			}
			if h.SrowX != ref.SrowX || h.SrowY != ref.SrowY || h.SrowZ != ref.SrowZ {
				t.Errorf("Expected sform rows to be copied")
			}
			if h.Pixdim != ref.Pixdim || h.QformCode != 1 || h.QoffsetX != -10 {
				t.Errorf("Expected pixdim and qform to be copied")
			}
			if len(h.Extensions) != 1 || h.Extensions[0].Code != 6 ||
				!bytes.HasPrefix(h.Extensions[0].Data, []byte("comment extension")) {
				t.Errorf("Expected extension to be copied, got %+v", h.Extensions)
			}
			if int(h.VoxOffset)%16 != 0 {
				t.Errorf("Expected vox_offset aligned to 16, got %v", h.VoxOffset)
			}
		})
	}
}

// TestReadDatatypesAndScaling verifies decoding of non-uint8 files in both byte orders
func TestReadDatatypesAndScaling(t *testing.T) {
	dir := t.TempDir()

	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		h := NewHeader(2, 1, 2)
		h.Datatype = DTInt16
		h.Bitpix = 16
		h.SclSlope = 0.5
		h.SclInter = -1

		// file order: (0,0,0) (1,0,0) (0,0,1) (1,0,1)
		data := make([]byte, 8)
		for i, v := range []int16{-4, 0, 2, 300} {
			order.PutUint16(data[2*i:], uint16(v))
		}

		path := filepath.Join(dir, order.String()+".nii.gz")
		writeRawImage(t, path, h, order, data, true)

		im, err := Codec{}.ReadFile(path)
		if err != nil {
			t.Fatalf("%s: ReadFile failed: %v", order, err)
		}

		want := map[[3]int]float64{{0, 0, 0}: -3, {1, 0, 0}: -1, {0, 0, 1}: 0, {1, 0, 1}: 149}
		for pos, w := range want {
			if got := im.At(pos[0], pos[1], pos[2]); got != w {
				t.Errorf("%s: expected %v at %v, got %v", order, w, pos, got)
			}
		}
	}
}

// TestFloatData verifies float samples and unscaled headers
func TestFloatData(t *testing.T) {
	h := NewHeader(1, 1, 3)
	h.Datatype = DTFloat64
	h.Bitpix = 64
	h.SclSlope = float32(math.NaN())

	data := make([]byte, 24)
	for i, v := range []float64{0.25, -1.5, 1e6} {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	path := filepath.Join(t.TempDir(), "float.nii")
	writeRawImage(t, path, h, binary.LittleEndian, data, false)

	im, err := Codec{}.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got := im.At(0, 0, 1); got != -1.5 {
		t.Errorf("Expected -1.5, got %v", got)
	}
}

// TestReadErrors verifies the error taxonomy for malformed and unsupported files
func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	notNifti := filepath.Join(dir, "junk.nii")
	os.WriteFile(notNifti, bytes.Repeat([]byte{7}, 400), 0o644)

	short := filepath.Join(dir, "short.nii")
	os.WriteFile(short, []byte{1, 2, 3}, 0o644)

	truncated := filepath.Join(dir, "truncated.nii")
	writeRawImage(t, truncated, NewHeader(4, 4, 4), binary.LittleEndian, make([]byte, 10), false)

	fourD := filepath.Join(dir, "4d.nii")
	h4 := NewHeader(2, 2, 2)
	h4.Dim[0] = 4
	h4.Dim[4] = 3
	writeRawImage(t, fourD, h4, binary.LittleEndian, make([]byte, 24), false)

	pair := filepath.Join(dir, "pair.hdr")
	hp := NewHeader(1, 1, 1)
	hp.Magic = magicPair
	writeRawImage(t, pair, hp, binary.LittleEndian, []byte{0}, false)

	rgb := filepath.Join(dir, "rgb.nii")
	hr := NewHeader(1, 1, 1)
	hr.Datatype = 128
	hr.Bitpix = 24
	writeRawImage(t, rgb, hr, binary.LittleEndian, []byte{0, 0, 0}, false)

	tests := []struct {
		path string
		want error
	}{
		{notNifti, ErrFormat},
		{short, ErrFormat},
		{truncated, ErrFormat},
		{fourD, ErrUnsupported},
		{pair, ErrUnsupported},
		{rgb, ErrUnsupported},
		{filepath.Join(dir, "missing.nii"), os.ErrNotExist},
	}
	for _, tt := range tests {
		if _, err := (Codec{}).ReadFile(tt.path); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", filepath.Base(tt.path), tt.want, err)
		}
	}
}

// TestAffine verifies sform, qform and pixdim fallbacks
func TestAffine(t *testing.T) {
	h := NewHeader(4, 4, 4)
	h.SrowX = [4]float32{2, 0, 0, 1}
	h.SrowY = [4]float32{0, 3, 0, 2}
	h.SrowZ = [4]float32{0, 0, 4, 3}

	if _, method := h.Affine(); method != MethodSform {
		t.Errorf("Expected sform method, got %s", method)
	}
	if got := h.VoxelToWorld(1, 1, 1); got != [3]float64{3, 5, 7} {
		t.Errorf("Expected (3,5,7), got %v", got)
	}

	h.SformCode = 0
	h.QformCode = 1
	h.Pixdim = [8]float32{-1, 2, 2, 3, 1, 1, 1, 1}
	h.QoffsetX, h.QoffsetY, h.QoffsetZ = 10, 20, 30
	affine, method := h.Affine()
	if method != MethodQform {
		t.Errorf("Expected qform method, got %s", method)
	}
	wantDiag := []float64{2, 2, -3, 1}
	for i, w := range wantDiag {
		if got := affine.At(i, i); math.Abs(got-w) > 1e-9 {
			t.Errorf("Expected affine[%d][%d]=%v, got %v", i, i, w, got)
		}
	}
	if got := h.VoxelToWorld(0, 0, 0); got != [3]float64{10, 20, 30} {
		t.Errorf("Expected origin at qoffset, got %v", got)
	}

	h.QformCode = 0
	if _, method := h.Affine(); method != MethodPixdim {
		t.Errorf("Expected pixdim method, got %s", method)
	}
}

// TestWriteFileValidation verifies inconsistent volumes are rejected without output
func TestWriteFileValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.nii")
	vol := models.XYZVolume{NX: 2, NY: 2, NZ: 2, Data: []uint8{1, 2}}

	if err := (Codec{}).WriteFile(path, vol, nil); err == nil {
		t.Error("Expected error for inconsistent volume, got nil")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no output file, stat returned %v", err)
	}
}
