package source

import (
	"context"
	"fmt"
	"time"

	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/karlseguin/ccache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Memory is an LRU of tile payloads shared by several layers. Concurrent
// requests for the same uncached tile result in a single upstream fetch,
// which keeps running when the caller that started it gives up. Upstream
// fetchers must bound their own duration, as the mapbox client does with
// its HTTP timeout.
type Memory struct {
	cache    *ccache.Cache[[]byte]
	inflight singleflight.Group
	ttl      time.Duration
	logger   *zap.Logger
}

// NewMemory creates a cache holding up to items payloads.
func NewMemory(items int64, ttl time.Duration, opts ...Option) *Memory {
	o := applyOptions(opts)
	return &Memory{
		cache:  ccache.New(ccache.Configure[[]byte]().MaxSize(items).ItemsToPrune(uint32(max(items/8, 1)))),
		ttl:    ttl,
		logger: o.Logger,
	}
}

// Wrap returns a fetcher serving layer tiles from the cache, filling it from f.
func (m *Memory) Wrap(layer fetch.Layer, f fetch.Fetcher) fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		key := fmt.Sprintf("%s/%d", layer, tileID.Code())

		if item := m.cache.Get(key); item != nil && !item.Expired() {
			m.logger.Debug("cache hit", zap.String("layer", string(layer)), zap.Stringer("tile", tileID))
			return item.Value(), nil
		}

		// the shared fetch outlives any single caller's cancellation
		ch := m.inflight.DoChan(key, func() (any, error) {
			m.logger.Debug("cache miss", zap.String("layer", string(layer)), zap.Stringer("tile", tileID))
			data, err := f.Fetch(context.WithoutCancel(ctx), tileID)
			if err != nil {
				return nil, err
			}
			m.cache.Set(key, data, m.ttl)
			return data, nil
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.([]byte), nil
		}
	})
}

// Len returns the number of cached payloads.
func (m *Memory) Len() int {
	return m.cache.ItemCount()
}

// Clear drops every cached payload.
func (m *Memory) Clear() {
	m.cache.Clear()
}

// Stop shuts down the cache's background worker.
func (m *Memory) Stop() {
	m.cache.Stop()
}
