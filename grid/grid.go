// Package grid resolves the square block of tiles surrounding a geographic origin.
package grid

import (
	"errors"
	"fmt"

	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrInvalidGridWidth = errors.New("terraintiles: grid width must be odd and at least 1")
	ErrOutOfRange       = errors.New("terraintiles: grid extends beyond the tile pyramid")
)

// Grid is a Width x Width block of tiles centered on the tile containing Origin.
//
// Tiles holds the addresses in resolution order: the outer loop walks columns
// and the inner loop walks rows, both starting from the south-east corner, so
// the middle element is always the origin tile. Cell coordinates (i, j) used by
// At and Cell are screen oriented: i grows west to east and j north to south.
type Grid struct {
	Origin geo.GeoPoint
	Zoom   uint32
	Width  int
	Tiles  []tile.ID
}

// Resolve computes the grid of tiles of side width centered on origin.
func Resolve(origin geo.GeoPoint, zoom uint32, width int) (*Grid, error) {
	if width < 1 || width%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidGridWidth, width)
	}

	originTile := geo.TileAt(origin, zoom)
	half := (width - 1) / 2

	tiles := make([]tile.ID, 0, width*width)
	for x := -half; x <= half; x++ {
		for y := half; y >= -half; y-- {
			tileID, ok := originTile.Offset(-x, y)
			if !ok {
				return nil, fmt.Errorf("%w: %v offset by (%d, %d)", ErrOutOfRange, originTile, -x, y)
			}
			tiles = append(tiles, tileID)
		}
	}

	return &Grid{Origin: origin, Zoom: zoom, Width: width, Tiles: tiles}, nil
}

// Half returns the number of tiles on each side of the origin tile.
func (g *Grid) Half() int {
	return (g.Width - 1) / 2
}

// OriginTile returns the tile containing the origin.
func (g *Grid) OriginTile() tile.ID {
	return g.Tiles[(len(g.Tiles)-1)/2]
}

// Cell returns the screen coordinates of Tiles[k].
func (g *Grid) Cell(k int) (i, j int) {
	return g.Width - 1 - k/g.Width, g.Width - 1 - k%g.Width
}

// At returns the tile at screen coordinates (i, j).
func (g *Grid) At(i, j int) tile.ID {
	return g.Tiles[(g.Width-1-i)*g.Width+(g.Width-1-j)]
}

// IndexOffset returns the tile offset of cell (i, j) from the origin tile,
// east and south positive.
func (g *Grid) IndexOffset(i, j int) (dx, dy int) {
	return i - g.Half(), j - g.Half()
}

// Footprints returns the geographic outline of every tile as GeoJSON,
// with the tile address and screen cell in the feature properties.
func (g *Grid) Footprints() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for k, tileID := range g.Tiles {
		i, j := g.Cell(k)
		f := geojson.NewFeature(geo.TileBound(tileID).ToPolygon())
		f.Properties["z"] = tileID.Z
		f.Properties["x"] = tileID.X
		f.Properties["y"] = tileID.Y
		f.Properties["i"] = i
		f.Properties["j"] = j
		f.Properties["origin"] = tileID == g.OriginTile()
		fc.Append(f)
	}
	return fc
}
