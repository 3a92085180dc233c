package mesh

import "github.com/ungerik/go3d/float64/vec3"

// StitchEdges averages the elevation of shared edge vertices between every
// tile and its bottom (j+1) and right (i+1) neighbours. Corners shared by more
// than two tiles are only averaged pairwise and may still disagree afterwards.
// Neighbours with a different vertex count are skipped.
//
// Normals are left untouched; call ComputeNormals afterwards.
func StitchEdges(g *Grid) {
	for i := range g.Width {
		for j := range g.Width {
			t := g.At(i, j)
			if t == nil {
				continue
			}
			if bottom := g.At(i, j+1); compatible(t, bottom) {
				stitchBottom(t, bottom)
			}
			if right := g.At(i+1, j); compatible(t, right) {
				stitchRight(t, right)
			}
		}
	}
}

// Stitch makes every shared vertex of the grid carry one elevation: edge
// vertices take the mean of the two tiles sharing them and every grid
// intersection takes the mean of all tiles meeting there.
//
// Normals are left untouched; call ComputeNormals afterwards.
func Stitch(g *Grid) {
	corners := cornerMeans(g)
	StitchEdges(g)
	for _, c := range corners {
		for _, ref := range c.refs {
			ref.tile.Positions[ref.index][2] = c.mean
		}
	}
}

func compatible(a, b *Tile) bool {
	return a != nil && b != nil && a.Segments == b.Segments && len(a.Positions) == len(b.Positions) && len(a.Positions) > 0
}

func stitchBottom(t, bottom *Tile) {
	n := t.RowLength()
	last := n * (n - 1)
	for k := range n {
		average(&t.Positions[last+k], &bottom.Positions[k])
	}
}

func stitchRight(t, right *Tile) {
	n := t.RowLength()
	for row := range n {
		average(&t.Positions[row*n+n-1], &right.Positions[row*n])
	}
}

func average(a, b *vec3.T) {
	m := (a[2] + b[2]) / 2
	a[2] = m
	b[2] = m
}

type vertexRef struct {
	tile  *Tile
	index int
}

type corner struct {
	refs []vertexRef
	mean float64
}

// cornerMeans collects the corner vertices meeting at each interior or
// border grid intersection shared by at least two compatible tiles.
func cornerMeans(g *Grid) []corner {
	var corners []corner
	for p := 0; p <= g.Width; p++ {
		for q := 0; q <= g.Width; q++ {
			var refs []vertexRef
			// tiles whose corner touches intersection (p, q), keyed by the
			// corner's position within the tile
			for _, c := range [4]struct{ i, j, corner int }{
				{p - 1, q - 1, bottomRight},
				{p, q - 1, bottomLeft},
				{p - 1, q, topRight},
				{p, q, topLeft},
			} {
				t := g.At(c.i, c.j)
				if t == nil || len(t.Positions) == 0 {
					continue
				}
				if len(refs) > 0 && !compatible(refs[0].tile, t) {
					continue
				}
				refs = append(refs, vertexRef{t, cornerIndex(t, c.corner)})
			}
			if len(refs) < 2 {
				continue
			}
			sum := 0.0
			for _, ref := range refs {
				sum += ref.tile.Positions[ref.index][2]
			}
			corners = append(corners, corner{refs: refs, mean: sum / float64(len(refs))})
		}
	}
	return corners
}

const (
	topLeft = iota
	topRight
	bottomLeft
	bottomRight
)

func cornerIndex(t *Tile, which int) int {
	n := t.RowLength()
	switch which {
	case topRight:
		return n - 1
	case bottomLeft:
		return n * (n - 1)
	case bottomRight:
		return n*n - 1
	default:
		return 0
	}
}
