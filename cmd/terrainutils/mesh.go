package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/internal/config"
	"github.com/eak1mov/go-terraintiles/internal/logger"
	"github.com/eak1mov/go-terraintiles/mesh"
	"github.com/eak1mov/go-terraintiles/terrain"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type meshCmd struct {
	flags      config.Flags
	outputPath string
}

func (c *meshCmd) Name() string     { return "mesh" }
func (c *meshCmd) Synopsis() string { return "build a terrain grid and export it as Wavefront OBJ" }
func (c *meshCmd) Usage() string {
	return "terrainutils mesh -o <path> [-topography] [-lat <lat> -lon <lon>] [-cacheDir <dir> [-offline]]\n"
}
func (c *meshCmd) SetFlags(f *flag.FlagSet) {
	c.flags.Register(f)
	f.StringVar(&c.outputPath, "o", "terrain.obj", "Output OBJ file path")
}

func (c *meshCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := setup(f, &c.flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	defer logger.Sync()

	if err := c.build(ctx, cfg); err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *meshCmd) build(ctx context.Context, cfg *config.Config) (err error) {
	opts, err := terrainOptions(cfg)
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

	width := opts.Width()
	bar := progressbar.NewOptions(width*width,
		progressbar.OptionSetDescription("loading terrain"),
		progressbar.OptionShowCount())
	opts.Imagery = fetchers[fetch.LayerImagery]
	opts.Elevation = fetchers[fetch.LayerElevation]
	opts.Progress = func(tile.ID) { bar.Add(1) }

	view := terrain.NewView(logger.Log)
	defer view.Dispose()
	err = view.Load(ctx, opts)
	bar.Finish()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	file, err := os.Create(c.outputPath)
	if err != nil {
		return err
	}
	view.Do(func(g *mesh.Grid) { err = mesh.WriteOBJ(file, g) })
	if err = errors.Join(err, file.Close()); err != nil {
		return err
	}

	logger.Log.Info("mesh written", zap.String("path", c.outputPath), zap.Int("width", width))
	return nil
}
