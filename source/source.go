// Package source composes tile fetchers: local tilesets, fallbacks,
// write-through persistence and an in-memory cache.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/tile"
	"go.uber.org/zap"
)

var ErrTileMissing = errors.New("terraintiles: tile missing from tileset")

type options struct {
	Logger *zap.Logger
}

type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.Logger = logger }
}

func applyOptions(opts []Option) options {
	o := options{Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromReader serves tiles from a tileset. Tiles absent from the tileset
// fail with ErrTileMissing.
func FromReader(r tile.Reader) fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := r.ReadTile(tileID)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrTileMissing, tileID)
		}
		return data, nil
	})
}

// Fallback asks primary first and secondary for tiles primary lacks.
func Fallback(primary, secondary fetch.Fetcher, opts ...Option) fetch.Fetcher {
	o := applyOptions(opts)
	return fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		data, err := primary.Fetch(ctx, tileID)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrTileMissing) {
			return nil, err
		}
		o.Logger.Debug("tile missing locally", zap.Stringer("tile", tileID))
		return secondary.Fetch(ctx, tileID)
	})
}

// WriteThrough stores every tile fetched through f in w. Writes are
// serialized; a failed write fails the fetch.
func WriteThrough(f fetch.Fetcher, w tile.Writer, opts ...Option) fetch.Fetcher {
	o := applyOptions(opts)
	var mu sync.Mutex
	return fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		data, err := f.Fetch(ctx, tileID)
		if err != nil {
			return nil, err
		}

		mu.Lock()
		defer mu.Unlock()
		if err := w.WriteTile(tileID, data); err != nil {
			return nil, fmt.Errorf("store tile %v: %w", tileID, err)
		}
		o.Logger.Debug("tile stored", zap.Stringer("tile", tileID), zap.Int("bytes", len(data)))
		return data, nil
	})
}
