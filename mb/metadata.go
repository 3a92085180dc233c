package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/paulmach/orb"
)

var (
	ErrInvalidMetadata = errors.New("terraintiles: invalid mbtiles metadata")
	ErrLayerMismatch   = errors.New("terraintiles: tile store holds a different layer")
)

// Metadata is the typed view of an MBTiles metadata table.
type Metadata struct {
	// Name is the layer stored in the file ("imagery" or "elevation" for
	// stores written by the tools).
	Name   string
	Format string

	// Bounds, MinZoom and MaxZoom describe the stored tiles; they are only
	// meaningful when HasExtent is set.
	Bounds    orb.Bound
	MinZoom   uint32
	MaxZoom   uint32
	HasExtent bool

	// Raw holds every entry, including ones not parsed above.
	Raw map[string]string
}

// ParseMetadata interprets the metadata entries. Files without bounds or
// zoom range parse with HasExtent unset.
func ParseMetadata(raw map[string]string) (Metadata, error) {
	m := Metadata{Name: raw["name"], Format: raw["format"], Raw: raw}

	bounds, hasBounds := raw["bounds"]
	minZoom, hasMin := raw["minzoom"]
	maxZoom, hasMax := raw["maxzoom"]
	if !hasBounds || !hasMin || !hasMax {
		return m, nil
	}

	parts := strings.Split(bounds, ",")
	if len(parts) != 4 {
		return m, fmt.Errorf("%w: bounds %q", ErrInvalidMetadata, bounds)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return m, fmt.Errorf("%w: bounds %q: %w", ErrInvalidMetadata, bounds, err)
		}
		v[i] = f
	}
	m.Bounds = orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}

	for _, z := range []struct {
		dst *uint32
		s   string
	}{{&m.MinZoom, minZoom}, {&m.MaxZoom, maxZoom}} {
		n, err := strconv.ParseUint(z.s, 10, 32)
		if err != nil {
			return m, fmt.Errorf("%w: zoom %q: %w", ErrInvalidMetadata, z.s, err)
		}
		*z.dst = uint32(n)
	}
	m.HasExtent = true
	return m, nil
}

// Covers reports whether tileID may be stored according to the extent.
// Without an extent every tile may be stored.
func (m *Metadata) Covers(tileID tile.ID) bool {
	if !m.HasExtent {
		return true
	}
	if tileID.Z < m.MinZoom || tileID.Z > m.MaxZoom {
		return false
	}
	return m.Bounds.Contains(geo.TileBound(tileID).Center())
}

// CheckLayer fails with ErrLayerMismatch when the file names a layer other
// than layer. Unnamed files pass.
func (m *Metadata) CheckLayer(layer string) error {
	if m.Name != "" && m.Name != layer {
		return fmt.Errorf("%w: want %s, file holds %s", ErrLayerMismatch, layer, m.Name)
	}
	return nil
}

func readMetadata(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}
	return metadata, rows.Err()
}
