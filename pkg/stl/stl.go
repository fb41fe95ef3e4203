// Package stl exports binary masks as triangle meshes in binary STL format.
// Every foreground voxel face that borders background or the volume edge
// becomes two triangles, so the mesh is the exact blocky surface of the mask.
package stl

import (
	"bufio"
	"encoding/binary"
	"math"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"voxmask/internal/models"
)

// Triangle represents a triangle in 3D space with its normal
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

// face describes one side of a unit voxel: the neighbour offset in (x, y, z)
// and the four corners in counter-clockwise order seen from outside
type face struct {
	dx, dy, dz int
	corners    [4][3]float32
}

var faces = [6]face{
	{-1, 0, 0, [4][3]float32{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}}},
	{1, 0, 0, [4][3]float32{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{0, -1, 0, [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{0, 1, 0, [4][3]float32{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}},
	{0, 0, -1, [4][3]float32{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}},
	{0, 0, 1, [4][3]float32{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
}

// Mesher builds the surface of a ZYX-flat mask
type Mesher struct {
	vol models.ZYXVolume

	// Scale factors for the output coordinates
	xScale, yScale, zScale float32
}

// NewMesher creates a mesher over vol with unit voxel size
func NewMesher(vol models.ZYXVolume) *Mesher {
	return &Mesher{vol: vol, xScale: 1, yScale: 1, zScale: 1}
}

// SetScale sets the physical voxel size along X, Y and Z
func (m *Mesher) SetScale(x, y, z float32) {
	m.xScale = x
	m.yScale = y
	m.zScale = z
}

func (m *Mesher) solid(x, y, z int) bool {
	return m.vol.InBounds(z, y, x) && m.vol.At(z, y, x) != 0
}

// GenerateTriangles returns two triangles per exposed voxel face
func (m *Mesher) GenerateTriangles() []Triangle {
	var triangles []Triangle

	for z := 0; z < m.vol.D; z++ {
		for y := 0; y < m.vol.H; y++ {
			for x := 0; x < m.vol.W; x++ {
				if !m.solid(x, y, z) {
					continue
				}
				for _, f := range faces {
					if m.solid(x+f.dx, y+f.dy, z+f.dz) {
						continue
					}

					var v [4][3]float32
					for i, c := range f.corners {
						v[i] = [3]float32{
							(float32(x) + c[0]) * m.xScale,
							(float32(y) + c[1]) * m.yScale,
							(float32(z) + c[2]) * m.zScale,
						}
					}
					normal := [3]float32{float32(f.dx), float32(f.dy), float32(f.dz)}

					triangles = append(triangles,
						Triangle{Normal: normal, Vertex1: v[0], Vertex2: v[1], Vertex3: v[2]},
						Triangle{Normal: normal, Vertex1: v[0], Vertex2: v[2], Vertex3: v[3]},
					)
				}
			}
		}
	}

	return triangles
}

// SaveToSTL writes triangles as a binary STL file: an 80 byte header, a
// little endian triangle count and 50 bytes per triangle
func SaveToSTL(filename string, triangles []Triangle) error {
	if uint64(len(triangles)) > math.MaxUint32 {
		return errors.Errorf("too many triangles for STL: %d", len(triangles))
	}

	f, err := renameio.NewPendingFile(filename, renameio.WithPermissions(0o644))
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	defer f.Cleanup()

	w := bufio.NewWriter(f)

	var header [80]byte
	copy(header[:], "voxmask binary mask surface")
	if _, err := w.Write(header[:]); err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}

	var attr uint16
	for _, t := range triangles {
		for _, v := range [...][3]float32{t.Normal, t.Vertex1, t.Vertex2, t.Vertex3} {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return errors.Wrapf(err, "write %s", filename)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, attr); err != nil {
			return errors.Wrapf(err, "write %s", filename)
		}
	}

	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "write %s", filename)
	}
	return errors.Wrapf(f.CloseAtomicallyReplace(), "replace %s", filename)
}
