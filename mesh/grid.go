package mesh

import "iter"

// Grid is a square block of tile meshes. Tiles[i][j] holds the tile in
// column i (west to east) and row j (north to south).
type Grid struct {
	Width int
	Tiles [][]*Tile
}

// NewGrid allocates an empty grid of side width.
func NewGrid(width int) *Grid {
	tiles := make([][]*Tile, width)
	for i := range tiles {
		tiles[i] = make([]*Tile, width)
	}
	return &Grid{Width: width, Tiles: tiles}
}

// At returns the tile in cell (i, j), or nil when the cell is outside the grid.
func (g *Grid) At(i, j int) *Tile {
	if i < 0 || j < 0 || i >= g.Width || j >= g.Width {
		return nil
	}
	return g.Tiles[i][j]
}

// Complete reports whether every cell holds a tile.
func (g *Grid) Complete() bool {
	for _, t := range g.All() {
		if t == nil {
			return false
		}
	}
	return true
}

// All iterates over the cells column by column.
func (g *Grid) All() iter.Seq2[[2]int, *Tile] {
	return func(yield func([2]int, *Tile) bool) {
		for i := range g.Width {
			for j := range g.Width {
				if !yield([2]int{i, j}, g.Tiles[i][j]) {
					return
				}
			}
		}
	}
}

// ComputeNormals recomputes normals of every tile.
func (g *Grid) ComputeNormals() {
	for _, t := range g.All() {
		if t != nil {
			t.ComputeNormals()
		}
	}
}

// Release releases every tile and empties the grid.
func (g *Grid) Release() {
	for _, t := range g.All() {
		if t != nil {
			t.Release()
		}
	}
	g.Tiles = nil
	g.Width = 0
}
