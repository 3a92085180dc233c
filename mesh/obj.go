package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteOBJ writes the grid as a Wavefront OBJ file in world coordinates,
// one object per tile. Vertex colors, when present, are appended to the
// vertex lines as "v x y z r g b".
func WriteOBJ(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# terraintiles mesh")
	base := 1
	for cell, t := range g.All() {
		if t == nil || len(t.Positions) == 0 {
			continue
		}
		fmt.Fprintf(bw, "o tile_%d_%d_%d_%d\n", t.ID.Z, t.ID.X, t.ID.Y, cell[0]*g.Width+cell[1])

		colors := vertexColors(t)
		for k := range t.Positions {
			p := t.WorldPosition(k)
			bw.WriteString("v ")
			bw.WriteString(formatFloats(p[:]...))
			if colors != nil {
				c := colors[k]
				bw.WriteByte(' ')
				bw.WriteString(formatFloats(float64(c[0])/255, float64(c[1])/255, float64(c[2])/255))
			}
			bw.WriteByte('\n')
		}
		for k := range t.UVs {
			fmt.Fprintf(bw, "vt %s\n", formatFloats(t.UVs[k][:]...))
		}
		for k := range t.Normals {
			n := t.WorldNormal(k)
			fmt.Fprintf(bw, "vn %s\n", formatFloats(n[:]...))
		}
		for _, f := range t.Faces {
			a, b, c := base+int(f.A), base+int(f.B), base+int(f.C)
			fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
		base += len(t.Positions)
	}

	return bw.Flush()
}

// vertexColors picks one color per vertex from the face corners using it.
func vertexColors(t *Tile) [][3]uint8 {
	if t.FaceColors == nil {
		return nil
	}
	colors := make([][3]uint8, len(t.Positions))
	for f, face := range t.Faces {
		for corner, k := range [3]uint32{face.A, face.B, face.C} {
			c := t.FaceColors[f][corner]
			colors[k] = [3]uint8{c.R, c.G, c.B}
		}
	}
	return colors
}

func formatFloats(vs ...float64) string {
	buf := make([]byte, 0, 16*len(vs))
	for i, v := range vs {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendFloat(buf, v, 'f', 6, 64)
	}
	return string(buf)
}
