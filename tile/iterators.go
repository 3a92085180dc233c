package tile

import (
	"errors"
	"iter"
)

// Visitor is implemented by tilesets that can enumerate their tiles.
type Visitor interface {
	// VisitTiles calls visitor for every stored tile, stopping at the first error.
	VisitTiles(visitor func(ID, []byte) error) error
}

var errVisitCancelled = errors.New("visit cancelled")

// IterTiles returns an iterator over all tiles in the tileset.
// It yields tile IDs and their data. Iteration panics on unrecoverable errors;
// use VisitTiles directly to handle them.
func IterTiles(r Visitor) iter.Seq2[ID, []byte] {
	return func(yield func(ID, []byte) bool) {
		err := r.VisitTiles(func(tileID ID, tileData []byte) error {
			if !yield(tileID, tileData) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}

// Zooms returns the distinct zoom levels stored in a tileset with their tile counts.
func Zooms(r Visitor) (map[uint32]int, error) {
	counts := make(map[uint32]int)
	err := r.VisitTiles(func(tileID ID, _ []byte) error {
		counts[tileID.Z]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
