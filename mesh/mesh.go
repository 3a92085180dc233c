// Package mesh builds displaced planar meshes for terrain tiles and
// post-processes a grid of them.
//
// A tile mesh lives in a local frame with x east, y north and z up. Vertices
// are stored row-major from the north-west corner. World coordinates are
// y-up with -z pointing north: the local plane is rotated -90 degrees about
// the x axis and translated by the tile's Offset.
package mesh

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/eak1mov/go-terraintiles/elevation"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/ungerik/go3d/float64/vec3"
)

var ErrNonSquareElevationField = errors.New("terraintiles: elevation field is not a square grid")

// Face is a triangle given by three vertex indices, counter-clockwise
// when seen from above.
type Face struct {
	A, B, C uint32
}

// Tile is the mesh of a single tile.
type Tile struct {
	ID     tile.ID
	Offset vec3.T
	Side   float64

	// Segments is the number of quads per row; rows hold Segments+1 vertices.
	Segments int

	Positions   []vec3.T
	Normals     []vec3.T
	UVs         [][2]float64
	Faces       []Face
	FaceNormals []vec3.T

	// FaceColors holds one color per face corner. It stays nil until a
	// classifier or flat coloring is applied.
	FaceColors [][3]color.RGBA

	Texture image.Image
}

// Placement returns the world offset of a tile lonOffset tiles east and
// latOffset tiles south of the origin tile, shifted so that the origin point
// (originX, originY meters from the origin tile center) sits at the world origin.
func Placement(lonOffset, latOffset int, side, originX, originY float64) vec3.T {
	return vec3.T{float64(lonOffset)*side - originX, 0, float64(latOffset)*side + originY}
}

// Build creates the mesh of one tile. A nil field yields a single flat quad
// and a one-sample field the same quad raised to that sample. Otherwise the
// field must be an n x n grid with n >= 2 and each vertex is raised by its
// sample.
func Build(id tile.ID, imagery image.Image, field *elevation.Field, side float64, offset vec3.T) (*Tile, error) {
	n := 2
	var heights []float64
	if field != nil {
		count := len(field.Heights)
		if count == 1 {
			// a single sample raises the whole quad
			h := field.Heights[0]
			heights = []float64{h, h, h, h}
		} else {
			n = int(math.Sqrt(float64(count)))
			for n*n < count {
				n++
			}
			if n*n != count || n < 2 {
				return nil, fmt.Errorf("%w: %d samples", ErrNonSquareElevationField, count)
			}
			heights = field.Heights
		}
	}

	seg := n - 1
	step := side / float64(seg)
	t := &Tile{
		ID:        id,
		Offset:    offset,
		Side:      side,
		Segments:  seg,
		Positions: make([]vec3.T, 0, n*n),
		UVs:       make([][2]float64, 0, n*n),
		Faces:     make([]Face, 0, 2*seg*seg),
		Texture:   imagery,
	}

	for iy := range n {
		for ix := range n {
			z := 0.0
			if heights != nil {
				z = heights[iy*n+ix]
			}
			t.Positions = append(t.Positions, vec3.T{-side/2 + float64(ix)*step, side/2 - float64(iy)*step, z})
			t.UVs = append(t.UVs, [2]float64{float64(ix) / float64(seg), 1 - float64(iy)/float64(seg)})
		}
	}

	for iy := range seg {
		for ix := range seg {
			a := uint32(ix + n*iy)
			b := uint32(ix + n*(iy+1))
			c := uint32(ix + 1 + n*(iy+1))
			d := uint32(ix + 1 + n*iy)
			t.Faces = append(t.Faces, Face{a, b, d}, Face{b, c, d})
		}
	}

	t.ComputeNormals()
	return t, nil
}

// RowLength returns the number of vertices per row.
func (t *Tile) RowLength() int {
	return t.Segments + 1
}

// Height returns the elevation of the vertex at column x and row y.
func (t *Tile) Height(x, y int) float64 {
	return t.Positions[y*t.RowLength()+x][2]
}

// WorldPosition returns vertex k in world coordinates.
func (t *Tile) WorldPosition(k int) vec3.T {
	p := toWorld(t.Positions[k])
	return vec3.Add(&p, &t.Offset)
}

// WorldNormal returns the normal of vertex k in world coordinates.
func (t *Tile) WorldNormal(k int) vec3.T {
	return toWorld(t.Normals[k])
}

func toWorld(v vec3.T) vec3.T {
	return vec3.T{v[0], v[2], -v[1]}
}

// Release drops geometry and texture references so they can be collected.
func (t *Tile) Release() {
	t.Positions = nil
	t.Normals = nil
	t.UVs = nil
	t.Faces = nil
	t.FaceNormals = nil
	t.FaceColors = nil
	t.Texture = nil
}
