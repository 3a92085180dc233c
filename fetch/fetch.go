// Package fetch retrieves the rasters of a tile grid concurrently and
// assembles them into a mesh grid.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/eak1mov/go-terraintiles/elevation"
	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/grid"
	"github.com/eak1mov/go-terraintiles/mesh"
	"github.com/eak1mov/go-terraintiles/raster"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/ungerik/go3d/float64/vec3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrTileFetchFailed = errors.New("terraintiles: tile fetch failed")

// Layer names a tile dataset.
type Layer string

const (
	LayerImagery   Layer = "imagery"
	LayerElevation Layer = "elevation"
)

// Fetcher returns the raw payload of one tile.
type Fetcher interface {
	Fetch(ctx context.Context, tileID tile.ID) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, tileID tile.ID) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, tileID tile.ID) ([]byte, error) {
	return f(ctx, tileID)
}

// TileFetchError reports the tile and layer whose retrieval failed.
// It matches ErrTileFetchFailed with errors.Is.
type TileFetchError struct {
	ID    tile.ID
	Layer Layer
	Err   error
}

func (e *TileFetchError) Error() string {
	return fmt.Sprintf("terraintiles: fetch %s tile %v: %v", e.Layer, e.ID, e.Err)
}

func (e *TileFetchError) Unwrap() error { return e.Err }

func (e *TileFetchError) Is(target error) bool { return target == ErrTileFetchFailed }

type config struct {
	Elevation Fetcher
	Exponent  int
	Logger    *zap.Logger
	Progress  func(tile.ID)
}

type Option func(*config)

// WithElevation enables topography: elevation tiles come from f and are
// sampled every 2^exponent pixels.
func WithElevation(f Fetcher, exponent int) Option {
	return func(c *config) {
		c.Elevation = f
		c.Exponent = exponent
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// WithProgress registers a callback invoked after each tile mesh is built.
// It may be called from several goroutines at once.
func WithProgress(progress func(tile.ID)) Option {
	return func(c *config) { c.Progress = progress }
}

// FetchAll fetches imagery, and elevation when enabled, for every tile of g
// at once and builds one mesh per tile. It waits for all requests to settle.
// When any tile fails the first failure is returned and no grid is produced.
func FetchAll(ctx context.Context, g *grid.Grid, imagery Fetcher, opts ...Option) (*mesh.Grid, error) {
	cfg := config{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Elevation != nil {
		if _, err := elevation.Stride(cfg.Exponent); err != nil {
			return nil, err
		}
	}

	side := geo.TileSideLength(g.Zoom)
	originX, originY := geo.OffsetMeters(g.OriginTile(), g.Origin)
	out := mesh.NewGrid(g.Width)

	eg, ctx := errgroup.WithContext(ctx)
	for k, tileID := range g.Tiles {
		i, j := g.Cell(k)
		dx, dy := g.IndexOffset(i, j)
		offset := mesh.Placement(dx, dy, side, originX, originY)

		eg.Go(func() error {
			m, err := buildTile(ctx, &cfg, imagery, tileID, side, offset)
			if err != nil {
				return err
			}
			out.Tiles[i][j] = m
			if cfg.Progress != nil {
				cfg.Progress(tileID)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		cfg.Logger.Warn("grid load failed", zap.Error(err))
		return nil, err
	}

	cfg.Logger.Info("grid fetched",
		zap.Stringer("origin_tile", g.OriginTile()),
		zap.Int("width", g.Width),
		zap.Bool("topography", cfg.Elevation != nil))
	return out, nil
}

func buildTile(ctx context.Context, cfg *config, imagery Fetcher, tileID tile.ID, side float64, offset vec3.T) (*mesh.Tile, error) {
	var texture image.Image
	var field *elevation.Field

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		data, err := fetchLayer(ctx, cfg.Logger, imagery, tileID, LayerImagery)
		if err != nil {
			return err
		}
		texture, err = raster.Decode(data)
		if err != nil {
			return &TileFetchError{ID: tileID, Layer: LayerImagery, Err: err}
		}
		return nil
	})
	if cfg.Elevation != nil {
		eg.Go(func() error {
			data, err := fetchLayer(ctx, cfg.Logger, cfg.Elevation, tileID, LayerElevation)
			if err != nil {
				return err
			}
			img, err := raster.Decode(data)
			if err != nil {
				return &TileFetchError{ID: tileID, Layer: LayerElevation, Err: err}
			}
			field, err = elevation.Decode(img, cfg.Exponent)
			if err != nil {
				return &TileFetchError{ID: tileID, Layer: LayerElevation, Err: err}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m, err := mesh.Build(tileID, texture, field, side, offset)
	if err != nil {
		return nil, fmt.Errorf("build tile %v: %w", tileID, err)
	}
	return m, nil
}

func fetchLayer(ctx context.Context, logger *zap.Logger, f Fetcher, tileID tile.ID, layer Layer) ([]byte, error) {
	start := time.Now()
	data, err := f.Fetch(ctx, tileID)
	if err != nil {
		logger.Warn("tile fetch failed",
			zap.Stringer("tile", tileID),
			zap.String("layer", string(layer)),
			zap.Error(err))
		return nil, &TileFetchError{ID: tileID, Layer: layer, Err: err}
	}
	logger.Debug("tile fetched",
		zap.Stringer("tile", tileID),
		zap.String("layer", string(layer)),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return data, nil
}
