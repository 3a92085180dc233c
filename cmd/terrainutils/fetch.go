package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/grid"
	"github.com/eak1mov/go-terraintiles/internal/config"
	"github.com/eak1mov/go-terraintiles/internal/logger"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type fetchCmd struct {
	flags config.Flags
}

func (c *fetchCmd) Name() string     { return "fetch" }
func (c *fetchCmd) Synopsis() string { return "prefetch the tiles of a grid into a tile store" }
func (c *fetchCmd) Usage() string {
	return "terrainutils fetch -cacheDir <dir> [-cacheFormat mbtiles|xyz] [-topography] [-lat <lat> -lon <lon>]\n"
}
func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	c.flags.Register(f)
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := setup(f, &c.flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	defer logger.Sync()

	if cfg.Cache.Dir == "" {
		logger.Sugar.Error("fetch needs a tile store: set -cacheDir or cache.dir")
		return subcommands.ExitUsageError
	}
	if cfg.Cache.Offline {
		logger.Sugar.Error("fetch cannot run offline")
		return subcommands.ExitUsageError
	}
	// tiles already in the store are not refetched
	cfg.Cache.MemoryItems = 0

	if err := c.prefetch(ctx, cfg); err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *fetchCmd) prefetch(ctx context.Context, cfg *config.Config) (err error) {
	opts, err := terrainOptions(cfg)
	if err != nil {
		return err
	}
	g, err := grid.Resolve(opts.Origin, opts.Zoom, opts.Width())
	if err != nil {
		return err
	}

	fetchers, closeAll, err := sources(cfg, layersFor(cfg.Topography))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeAll(); err == nil {
			err = closeErr
		}
	}()

	bar := progressbar.NewOptions(len(g.Tiles),
		progressbar.OptionSetDescription("fetching tiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts())
	fetchOpts := []fetch.Option{
		fetch.WithLogger(logger.Log),
		fetch.WithProgress(func(tile.ID) { bar.Add(1) }),
	}
	if cfg.Topography {
		fetchOpts = append(fetchOpts, fetch.WithElevation(fetchers[fetch.LayerElevation], cfg.ResolutionExponent))
	}

	meshes, err := fetch.FetchAll(ctx, g, fetchers[fetch.LayerImagery], fetchOpts...)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	meshes.Release()

	logger.Log.Info("tiles stored",
		zap.Int("tiles", len(g.Tiles)),
		zap.Bool("topography", cfg.Topography),
		zap.String("dir", cfg.Cache.Dir))
	return nil
}
