// Package mb stores tiles in MBTiles files, used as offline tile sources and
// write-through caches.
//
// The sqlite3 driver must be registered by the program, e.g. with
// import _ "github.com/mattn/go-sqlite3".
package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-terraintiles/tile"
)

const selectTile = "SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?"

// Reader serves tiles from an MBTiles file opened read-only. Requests
// outside the extent recorded in the metadata are answered without a query.
type Reader struct {
	db       *sql.DB
	stmt     *sql.Stmt
	metadata Metadata
}

// NewReader opens filePath read-only and loads its metadata. The Reader must
// be closed after use.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	raw, err := readMetadata(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read metadata of %s: %w", filePath, err)
	}
	metadata, err := ParseMetadata(raw)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	stmt, err := db.Prepare(selectTile)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Reader{db: db, stmt: stmt, metadata: metadata}, nil
}

// OpenLayer opens filePath like NewReader and checks that it stores layer.
func OpenLayer(filePath, layer string) (*Reader, error) {
	r, err := NewReader(filePath)
	if err != nil {
		return nil, err
	}
	if err := r.metadata.CheckLayer(layer); err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return r, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

// Metadata returns the metadata loaded when the file was opened.
func (r *Reader) Metadata() Metadata {
	return r.metadata
}

// ReadTile returns an empty slice for tiles not in the file.
func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	if !r.metadata.Covers(tileID) {
		return []byte{}, nil
	}
	return readTile(r.stmt, tileID)
}

// flipY converts between XYZ and TMS rows; the conversion is its own inverse.
func flipY(y, z uint32) uint32 {
	return (1 << z) - 1 - y
}

func readTile(stmt *sql.Stmt, tileID tile.ID) ([]byte, error) {
	var tileData []byte
	err := stmt.QueryRow(tileID.Z, tileID.X, flipY(tileID.Y, tileID.Z)).Scan(&tileData)
	if errors.Is(err, sql.ErrNoRows) {
		return []byte{}, nil
	}
	return tileData, err
}

// VisitTiles calls visitor for every stored tile, lower zooms first.
func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	rows, err := r.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tileID tile.ID
		var row uint32
		var tileData []byte
		if err := rows.Scan(&tileID.Z, &tileID.X, &row, &tileData); err != nil {
			return err
		}
		tileID.Y = flipY(row, tileID.Z)
		if err := visitor(tileID, tileData); err != nil {
			return err
		}
	}
	return rows.Err()
}
