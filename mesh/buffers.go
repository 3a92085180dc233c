package mesh

import "image/color"

// Buffers holds de-indexed float32 attribute arrays of a tile in world
// space, three vertices per face, ready for upload to a GPU.
type Buffers struct {
	Positions []float32
	Normals   []float32
	UVs       []float32
	// Colors is nil when the tile has no face colors.
	Colors []float32
}

// Buffers expands the tile into per-corner attribute arrays.
func (t *Tile) Buffers() *Buffers {
	count := len(t.Faces) * 3
	b := &Buffers{
		Positions: make([]float32, 0, count*3),
		Normals:   make([]float32, 0, count*3),
		UVs:       make([]float32, 0, count*2),
	}
	if t.FaceColors != nil {
		b.Colors = make([]float32, 0, count*3)
	}

	for f, face := range t.Faces {
		for corner, k := range [3]uint32{face.A, face.B, face.C} {
			p := t.WorldPosition(int(k))
			n := t.WorldNormal(int(k))
			b.Positions = append(b.Positions, float32(p[0]), float32(p[1]), float32(p[2]))
			b.Normals = append(b.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
			b.UVs = append(b.UVs, float32(t.UVs[k][0]), float32(t.UVs[k][1]))
			if b.Colors != nil {
				b.Colors = appendColor(b.Colors, t.FaceColors[f][corner])
			}
		}
	}
	return b
}

func appendColor(dst []float32, c color.RGBA) []float32 {
	return append(dst, float32(c.R)/255, float32(c.G)/255, float32(c.B)/255)
}
