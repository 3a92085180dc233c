package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Writer implements tile.Writer for MBTiles files. It opens existing files
// for update, so it also serves as a tile cache: tiles already present can
// be read back with ReadTile and rewritten tiles replace the stored ones.
type Writer struct {
	db        *sql.DB
	writeStmt *sql.Stmt
	readStmt  *sql.Stmt
	logger    *zap.Logger

	mu        sync.Mutex
	bound     orb.Bound
	minZoom   uint32
	maxZoom   uint32
	hasExtent bool
	written   int
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *zap.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *zap.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter opens or creates an MBTiles file for writing tiles.
// It applies given options and initializes the schema when missing.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	// a single connection keeps sqlite from reporting "database is locked"
	db.SetMaxOpenConns(1)
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (name TEXT, value TEXT);
		CREATE UNIQUE INDEX IF NOT EXISTS metadata_index ON metadata (name);
		CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB
		);
		CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
	`)
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", filePath, err)
	}

	for k, v := range config.Metadata {
		_, err = db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	raw, err := readMetadata(db)
	if err != nil {
		return nil, err
	}
	existing, err := ParseMetadata(raw)
	if err != nil {
		return nil, err
	}

	writeStmt, err := db.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	readStmt, err := db.Prepare(selectTile)
	if err != nil {
		writeStmt.Close()
		return nil, err
	}

	w := &Writer{db: db, writeStmt: writeStmt, readStmt: readStmt, logger: config.Logger}
	if existing.HasExtent {
		// tiles from earlier sessions stay inside the recorded extent
		w.bound, w.minZoom, w.maxZoom, w.hasExtent = existing.Bounds, existing.MinZoom, existing.MaxZoom, true
	}
	return w, nil
}

func (w *Writer) Close() error {
	return errors.Join(w.writeStmt.Close(), w.readStmt.Close(), w.db.Close())
}

func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	if _, err := w.writeStmt.Exec(tileID.Z, tileID.X, flipY(tileID.Y, tileID.Z), tileData); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	b := geo.TileBound(tileID)
	if !w.hasExtent {
		w.bound, w.minZoom, w.maxZoom, w.hasExtent = b, tileID.Z, tileID.Z, true
	} else {
		w.bound = w.bound.Union(b)
		w.minZoom = min(w.minZoom, tileID.Z)
		w.maxZoom = max(w.maxZoom, tileID.Z)
	}
	w.written++
	return nil
}

// ReadTile reads back a stored tile, returning an empty slice when missing.
func (w *Writer) ReadTile(tileID tile.ID) ([]byte, error) {
	return readTile(w.readStmt, tileID)
}

// Finalize records the bounds and zoom range of the tiles written through
// this Writer in the metadata table.
func (w *Writer) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasExtent {
		return nil
	}

	metadata := map[string]string{
		"bounds": fmt.Sprintf("%f,%f,%f,%f", w.bound.Min.Lon(), w.bound.Min.Lat(), w.bound.Max.Lon(), w.bound.Max.Lat()),
		"minzoom": strconv.FormatUint(uint64(w.minZoom), 10),
		"maxzoom": strconv.FormatUint(uint64(w.maxZoom), 10),
	}
	for k, v := range metadata {
		if _, err := w.db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", k, v); err != nil {
			return err
		}
	}

	w.logger.Debug("mbtiles finalized", zap.Int("tiles", w.written), zap.String("bounds", metadata["bounds"]))
	return nil
}
