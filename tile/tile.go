// Package tile provides common tile interfaces and types.
package tile

import "fmt"

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
type ID struct {
	X uint32
	Y uint32
	Z uint32
}

func (t ID) Valid() bool {
	return t.Z < 32 && t.X < (1<<t.Z) && t.Y < (1<<t.Z)
}

func (t ID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Offset returns the tile dx columns east and dy rows south of t.
// Columns wrap around the antimeridian; ok is false when the row
// falls outside the pyramid.
func (t ID) Offset(dx, dy int) (ID, bool) {
	n := int64(1) << t.Z
	x := (int64(t.X) + int64(dx)) % n
	if x < 0 {
		x += n
	}
	y := int64(t.Y) + int64(dy)
	if y < 0 || y >= n {
		return ID{}, false
	}
	return ID{X: uint32(x), Y: uint32(y), Z: t.Z}, true
}

// Writer defines an interface for writing tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(tileID ID, tileData []byte) error

	// Finalize completes the writing process: flushes buffers, writes header and indices.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// It returns the tile data or an error if the tile cannot be read.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(tileID ID) ([]byte, error)
}
