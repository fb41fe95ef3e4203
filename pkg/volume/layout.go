package volume

import "voxmask/internal/models"

// ToNativeOrder permutes a ZYX-flat volume into native (X, Y, Z) nesting.
// The sample at (z, y, x) lands at (x, y, z); extents (D, H, W) become
// (NX, NY, NZ) = (W, H, D).
func ToNativeOrder(vol models.ZYXVolume) models.XYZVolume {
	out := models.NewXYZVolume(vol.W, vol.H, vol.D)

	i := 0
	for z := 0; z < vol.D; z++ {
		for y := 0; y < vol.H; y++ {
			for x := 0; x < vol.W; x++ {
				out.Data[out.Index(x, y, z)] = vol.Data[i]
				i++
			}
		}
	}
	return out
}

// ToZYXFlat is the inverse of ToNativeOrder: (z, y, x) receives the sample
// from native (x, y, z), producing idx = (z*H + y)*W + x.
func ToZYXFlat(vol models.XYZVolume) models.ZYXVolume {
	out := models.NewZYXVolume(vol.Dims())

	i := 0
	for x := 0; x < vol.NX; x++ {
		for y := 0; y < vol.NY; y++ {
			for z := 0; z < vol.NZ; z++ {
				out.Data[out.Index(z, y, x)] = vol.Data[i]
				i++
			}
		}
	}
	return out
}
