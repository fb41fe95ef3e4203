package phantom

import (
	"testing"

	"voxmask/internal/models"
	"voxmask/pkg/volume"
)

var cube = models.Dims{D: 9, H: 9, W: 9}

// TestLine verifies clamping and reversed ranges
func TestLine(t *testing.T) {
	vol := Line(cube, 4, 4, 10, 2)
	if n := volume.CountOnes(vol.Data); n != 7 {
		t.Errorf("Expected 7 voxels from x=2..8, got %d", n)
	}
	if vol.At(4, 4, 1) != 0 || vol.At(4, 4, 2) != 1 || vol.At(4, 4, 8) != 1 {
		t.Error("Line endpoints are wrong")
	}
}

// TestBox verifies the inclusive box volume
func TestBox(t *testing.T) {
	vol := Box(cube, 1, 3, 2, 4, 5, 3)
	if n := volume.CountOnes(vol.Data); n != 3*3*3 {
		t.Errorf("Expected 27 voxels, got %d", n)
	}
	if vol.At(2, 3, 4) != 1 || vol.At(0, 3, 4) != 0 {
		t.Error("Box membership is wrong")
	}
}

// TestCross verifies the arms share their centre voxel
func TestCross(t *testing.T) {
	vol := Cross(cube, 4, 4, 4, 2)
	if n := volume.CountOnes(vol.Data); n != 3*4+1 {
		t.Errorf("Expected 13 voxels, got %d", n)
	}

	// arms leaving the volume are cut off
	edge := Cross(cube, 0, 0, 0, 3)
	if n := volume.CountOnes(edge.Data); n != 3*3+1 {
		t.Errorf("Expected 10 voxels at the corner, got %d", n)
	}
}

// TestSquareLoop verifies the outline perimeter
func TestSquareLoop(t *testing.T) {
	vol := SquareLoop(cube, 4, 2, 6, 1, 7)
	// 5 rows x 7 columns outline: 2*7 + 2*5 - 4 corners
	if n := volume.CountOnes(vol.Data); n != 20 {
		t.Errorf("Expected 20 voxels, got %d", n)
	}
	if vol.At(4, 4, 4) != 0 {
		t.Error("Loop interior should be empty")
	}

	outside := SquareLoop(cube, 12, 2, 6, 1, 7)
	if n := volume.CountOnes(outside.Data); n != 0 {
		t.Errorf("Expected no voxels for a slice outside the volume, got %d", n)
	}
}

// TestTorus verifies the ring has a hole and is symmetric
func TestTorus(t *testing.T) {
	dims := models.Dims{D: 9, H: 32, W: 32}
	vol := Torus(dims, 4, 16, 16, 10, 3)

	if vol.At(4, 16, 16) != 0 {
		t.Error("Torus centre should be empty")
	}
	if vol.At(4, 16, 26) != 1 || vol.At(4, 6, 16) != 1 {
		t.Error("Torus ring should pass through the major radius")
	}
	if vol.At(0, 16, 26) != 0 {
		t.Error("Torus should not reach z=0 with tube radius 3")
	}
	if volume.CountOnes(vol.Data) == 0 {
		t.Error("Expected a non-empty torus")
	}
}
