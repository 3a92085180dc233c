package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eak1mov/go-terraintiles/colorscale"
	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/internal/config"
	"github.com/eak1mov/go-terraintiles/internal/logger"
	"github.com/eak1mov/go-terraintiles/mapbox"
	"github.com/eak1mov/go-terraintiles/mb"
	"github.com/eak1mov/go-terraintiles/source"
	"github.com/eak1mov/go-terraintiles/terrain"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/eak1mov/go-terraintiles/xyz"
)

// memoryTTL bounds how long a tile stays in the in-process cache.
const memoryTTL = time.Hour

var errMissingToken = errors.New("terraintiles: mapbox access token required (-mapboxAccessToken or MAPBOX_ACCESS_TOKEN)")

// setup fills unset flags from the environment, loads the config and
// initializes logging.
func setup(f *flag.FlagSet, flags *config.Flags) (*config.Config, error) {
	if err := config.ApplyEnv(f, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg, err := config.Load(flags.ConfigPath, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseColoring(name string) (terrain.Coloring, error) {
	switch name {
	case "none":
		return terrain.ColoringNone, nil
	case "slope":
		return terrain.ColoringSlope, nil
	case "flat":
		return terrain.ColoringFlat, nil
	case "debug":
		return terrain.ColoringDebugEdges, nil
	}
	return 0, fmt.Errorf("terraintiles: unknown coloring %q", name)
}

func terrainOptions(cfg *config.Config) (terrain.Options, error) {
	coloring, err := parseColoring(cfg.Coloring)
	if err != nil {
		return terrain.Options{}, err
	}
	opts := terrain.DefaultOptions(cfg.OriginPoint())
	opts.Zoom = cfg.Zoom
	opts.GridWidth = cfg.GridWidth
	opts.Topography = cfg.Topography
	opts.ResolutionExponent = cfg.ResolutionExponent
	opts.MaxAllowableSlope = cfg.MaxAllowableSlope
	opts.Coloring = coloring
	opts.FlatColor = colorscale.Ramp[0]
	opts.Logger = logger.Log
	return opts, nil
}

func newClient(cfg *config.Config) (*mapbox.Client, error) {
	if cfg.Mapbox.AccessToken == "" {
		return nil, errMissingToken
	}
	opts := []mapbox.Option{
		mapbox.WithBaseURL(cfg.Mapbox.BaseURL),
		mapbox.WithTileSize(cfg.Mapbox.TileSize),
		mapbox.WithTimeout(cfg.HTTP.Timeout),
		mapbox.WithLogger(logger.Log),
	}
	if cfg.Mapbox.ImageryURL != "" {
		opts = append(opts, mapbox.WithImageryTemplate(cfg.Mapbox.ImageryURL))
	}
	if cfg.Mapbox.ElevationURL != "" {
		opts = append(opts, mapbox.WithElevationTemplate(cfg.Mapbox.ElevationURL))
	}
	return mapbox.NewClient(cfg.Mapbox.AccessToken, cfg.Mapbox.StyleURL, opts...)
}

// store is an on-disk tile store for one layer. writer is nil for stores
// opened read-only.
type store struct {
	reader tile.Reader
	writer tile.Writer
	close  func() error
}

// storePath returns the MBTiles file or XYZ pattern of layer inside dir.
func storePath(dir, format string, layer fetch.Layer) string {
	if format == "xyz" {
		return filepath.Join(dir, string(layer), "{z}", "{x}", "{y}.tile")
	}
	return filepath.Join(dir, string(layer)+".mbtiles")
}

// deduceFormat picks the store format for path when none is given.
func deduceFormat(format, path string) string {
	if format == "" && strings.HasSuffix(path, ".mbtiles") {
		return "mbtiles"
	}
	if format == "" && strings.Contains(path, "{z}") {
		return "xyz"
	}
	return format
}

func openStore(path, format string, layer fetch.Layer, readOnly bool) (*store, error) {
	switch deduceFormat(format, path) {
	case "mbtiles":
		if readOnly {
			open := mb.NewReader
			if layer != "" {
				open = func(path string) (*mb.Reader, error) { return mb.OpenLayer(path, string(layer)) }
			}
			r, err := open(path)
			if err != nil {
				return nil, err
			}
			return &store{reader: r, close: r.Close}, nil
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		w, err := mb.NewWriter(path,
			mb.WithMetadata(map[string]string{"name": string(layer), "type": "baselayer"}),
			mb.WithLogger(logger.Log))
		if err != nil {
			return nil, err
		}
		return &store{reader: w, writer: w, close: func() error {
			return errors.Join(w.Finalize(), w.Close())
		}}, nil
	case "xyz":
		r, err := xyz.NewReader(path)
		if err != nil {
			return nil, err
		}
		s := &store{reader: r, close: func() error { return nil }}
		if !readOnly {
			w, err := xyz.NewWriter(path)
			if err != nil {
				return nil, err
			}
			s.writer = w
			s.close = w.Finalize
		}
		return s, nil
	}
	return nil, fmt.Errorf("terraintiles: unknown store format %q for %s", format, path)
}

// sources assembles the fetchers for the layers in use. With a cache
// directory, tiles are served from the store first and network tiles are
// written through to it. The returned func closes the stores.
func sources(cfg *config.Config, layers []fetch.Layer) (map[fetch.Layer]fetch.Fetcher, func() error, error) {
	var client *mapbox.Client
	if !cfg.Cache.Offline {
		var err error
		if client, err = newClient(cfg); err != nil {
			return nil, nil, err
		}
	}

	var memory *source.Memory
	if cfg.Cache.MemoryItems > 0 {
		memory = source.NewMemory(cfg.Cache.MemoryItems, memoryTTL, source.WithLogger(logger.Log))
	}

	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		if memory != nil {
			memory.Stop()
		}
		return errors.Join(errs...)
	}

	fetchers := make(map[fetch.Layer]fetch.Fetcher, len(layers))
	for _, layer := range layers {
		var f fetch.Fetcher
		if client != nil {
			f = client.Fetcher(layer)
		}
		if cfg.Cache.Dir != "" {
			s, err := openStore(storePath(cfg.Cache.Dir, cfg.Cache.Format, layer), cfg.Cache.Format, layer, cfg.Cache.Offline)
			if err != nil {
				return nil, nil, errors.Join(err, closeAll())
			}
			closers = append(closers, s.close)
			if f == nil {
				f = source.FromReader(s.reader)
			} else {
				f = source.Fallback(source.FromReader(s.reader), source.WriteThrough(f, s.writer, source.WithLogger(logger.Log)),
					source.WithLogger(logger.Log))
			}
		}
		if memory != nil {
			f = memory.Wrap(layer, f)
		}
		fetchers[layer] = f
	}
	return fetchers, closeAll, nil
}

func layersFor(topography bool) []fetch.Layer {
	if topography {
		return []fetch.Layer{fetch.LayerImagery, fetch.LayerElevation}
	}
	return []fetch.Layer{fetch.LayerImagery}
}
