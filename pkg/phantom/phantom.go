// Package phantom generates synthetic binary masks for exercising the
// conversion and thinning pipeline: lines, boxes, crosses, loops and tori.
//
// Ranges are clamped to the volume and swapped when given in reverse order.
// Points that fall outside the volume are skipped.
package phantom

import (
	"math"

	"voxmask/internal/models"
)

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// span clamps [a, b] to [0, n-1] and orders it
func span(a, b, n int) (int, int) {
	a, b = clamp(a, 0, n-1), clamp(b, 0, n-1)
	if a > b {
		a, b = b, a
	}
	return a, b
}

func set(vol models.ZYXVolume, z, y, x int) {
	if vol.InBounds(z, y, x) {
		vol.Set(z, y, x, 1)
	}
}

// Line draws a one voxel thick segment along X from x0 to x1 at (z, y)
func Line(dims models.Dims, z, y, x0, x1 int) models.ZYXVolume {
	vol := models.NewZYXVolume(dims)
	x0, x1 = span(x0, x1, dims.W)
	for x := x0; x <= x1; x++ {
		set(vol, z, y, x)
	}
	return vol
}

// Box fills the inclusive box [z0,z1] x [y0,y1] x [x0,x1]
func Box(dims models.Dims, z0, z1, y0, y1, x0, x1 int) models.ZYXVolume {
	vol := models.NewZYXVolume(dims)
	z0, z1 = span(z0, z1, dims.D)
	y0, y1 = span(y0, y1, dims.H)
	x0, x1 = span(x0, x1, dims.W)

	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				vol.Set(z, y, x, 1)
			}
		}
	}
	return vol
}

// Cross draws three orthogonal arms of half length arm through (cz, cy, cx)
func Cross(dims models.Dims, cz, cy, cx, arm int) models.ZYXVolume {
	vol := models.NewZYXVolume(dims)
	for t := -arm; t <= arm; t++ {
		set(vol, cz, cy, cx+t)
		set(vol, cz, cy+t, cx)
		set(vol, cz+t, cy, cx)
	}
	return vol
}

// SquareLoop draws the one voxel thick outline of the rectangle
// [y0,y1] x [x0,x1] in slice z
func SquareLoop(dims models.Dims, z, y0, y1, x0, x1 int) models.ZYXVolume {
	vol := models.NewZYXVolume(dims)
	y0, y1 = span(y0, y1, dims.H)
	x0, x1 = span(x0, x1, dims.W)

	for x := x0; x <= x1; x++ {
		set(vol, z, y0, x)
		set(vol, z, y1, x)
	}
	for y := y0; y <= y1; y++ {
		set(vol, z, y, x0)
		set(vol, z, y, x1)
	}
	return vol
}

// Torus fills the solid torus centred on (cz, cy, cx) lying in the XY plane,
// with major radius R and tube radius r:
// (sqrt(dx^2 + dy^2) - R)^2 + dz^2 <= r^2
func Torus(dims models.Dims, cz, cy, cx int, R, r float64) models.ZYXVolume {
	vol := models.NewZYXVolume(dims)
	for z := 0; z < dims.D; z++ {
		dz := float64(z - cz)
		for y := 0; y < dims.H; y++ {
			dy := float64(y - cy)
			for x := 0; x < dims.W; x++ {
				dx := float64(x - cx)
				t := math.Hypot(dx, dy) - R
				if t*t+dz*dz <= r*r {
					vol.Set(z, y, x, 1)
				}
			}
		}
	}
	return vol
}
