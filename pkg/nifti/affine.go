package nifti

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Transform method used to build the voxel to world affine
const (
	MethodPixdim = "pixdim"
	MethodQform  = "qform"
	MethodSform  = "sform"
)

// Affine returns the 4x4 voxel to world transform and the method it came from.
// The sform is preferred, then the quaternion qform, then plain pixdim scaling.
func (h *Header) Affine() (*mat.Dense, string) {
	switch {
	case h.SformCode > 0:
		return h.sformAffine(), MethodSform
	case h.QformCode > 0:
		return h.qformAffine(), MethodQform
	default:
		return mat.NewDense(4, 4, []float64{
			float64(h.Pixdim[1]), 0, 0, 0,
			0, float64(h.Pixdim[2]), 0, 0,
			0, 0, float64(h.Pixdim[3]), 0,
			0, 0, 0, 1,
		}), MethodPixdim
	}
}

func (h *Header) sformAffine() *mat.Dense {
	a := mat.NewDense(4, 4, nil)
	for j := 0; j < 4; j++ {
		a.Set(0, j, float64(h.SrowX[j]))
		a.Set(1, j, float64(h.SrowY[j]))
		a.Set(2, j, float64(h.SrowZ[j]))
	}
	a.Set(3, 3, 1)
	return a
}

func (h *Header) qformAffine() *mat.Dense {
	b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
	a := 1 - (b*b + c*c + d*d)
	if a < 1e-7 {
		// 180 degree rotation: renormalise (b, c, d)
		n := math.Sqrt(b*b + c*c + d*d)
		b, c, d = b/n, c/n, d/n
		a = 0
	} else {
		a = math.Sqrt(a)
	}

	rot := mat.NewDense(3, 3, []float64{
		a*a + b*b - c*c - d*d, 2 * (b*c - a*d), 2 * (b*d + a*c),
		2 * (b*c + a*d), a*a + c*c - b*b - d*d, 2 * (c*d - a*b),
		2 * (b*d - a*c), 2 * (c*d + a*b), a*a + d*d - c*c - b*b,
	})

	qfac := float64(h.Pixdim[0])
	if qfac != -1 {
		qfac = 1
	}
	scale := mat.NewDiagDense(3, []float64{
		float64(h.Pixdim[1]),
		float64(h.Pixdim[2]),
		float64(h.Pixdim[3]) * qfac,
	})

	var m mat.Dense
	m.Mul(rot, scale)

	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	out.Set(0, 3, float64(h.QoffsetX))
	out.Set(1, 3, float64(h.QoffsetY))
	out.Set(2, 3, float64(h.QoffsetZ))
	out.Set(3, 3, 1)
	return out
}

// VoxelToWorld maps voxel indices (i, j, k) to world coordinates
func (h *Header) VoxelToWorld(i, j, k float64) [3]float64 {
	affine, _ := h.Affine()

	var world mat.VecDense
	world.MulVec(affine, mat.NewVecDense(4, []float64{i, j, k, 1}))
	return [3]float64{world.AtVec(0), world.AtVec(1), world.AtVec(2)}
}
