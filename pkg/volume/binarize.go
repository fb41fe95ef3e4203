package volume

import (
	"strconv"

	"voxmask/internal/models"
)

// Mode selects the binarization rule applied to every sample
type Mode struct {
	threshold    float64
	useThreshold bool
}

// NonzeroTest maps s to 1 when s != 0. This is the default mode.
func NonzeroTest() Mode {
	return Mode{}
}

// ThresholdTest maps s to 1 when s > t. A sample equal to t maps to 0.
func ThresholdTest(t float64) Mode {
	return Mode{threshold: t, useThreshold: true}
}

// Test reports whether sample s is foreground under this mode
func (m Mode) Test(s float64) bool {
	if m.useThreshold {
		return s > m.threshold
	}
	return s != 0
}

// Threshold returns the threshold and whether the mode uses one
func (m Mode) Threshold() (float64, bool) {
	return m.threshold, m.useThreshold
}

func (m Mode) String() string {
	if m.useThreshold {
		return "value > " + strconv.FormatFloat(m.threshold, 'g', -1, 64)
	}
	return "value != 0"
}

// lut precomputes the mode for every byte value
func (m Mode) lut() [256]uint8 {
	var table [256]uint8
	for i := range table {
		if m.Test(float64(i)) {
			table[i] = 1
		}
	}
	return table
}

// Binarize returns a new volume with every sample mapped to 0 or 1.
// The input is left untouched. Re-binarizing the result with NonzeroTest is the
// identity; re-applying a threshold of 1 or more is not.
func Binarize(vol models.ZYXVolume, mode Mode) models.ZYXVolume {
	table := mode.lut()
	out := models.ZYXVolume{Dims: vol.Dims, Data: make([]uint8, len(vol.Data))}
	for i, s := range vol.Data {
		out.Data[i] = table[s]
	}
	return out
}

// SampleGrid is a native-order source of arbitrary sample values, typically a
// decoded imaging container
type SampleGrid interface {
	Extents() (nx, ny, nz int)
	At(x, y, z int) float64
}

// BinarizeNative evaluates mode over every sample of grid and returns a native
// order mask with the same extents
func BinarizeNative(grid SampleGrid, mode Mode) models.XYZVolume {
	nx, ny, nz := grid.Extents()
	out := models.NewXYZVolume(nx, ny, nz)

	i := 0
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				if mode.Test(grid.At(x, y, z)) {
					out.Data[i] = 1
				}
				i++
			}
		}
	}
	return out
}
