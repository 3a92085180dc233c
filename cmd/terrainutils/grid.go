package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eak1mov/go-terraintiles/grid"
	"github.com/eak1mov/go-terraintiles/internal/config"
	"github.com/eak1mov/go-terraintiles/internal/logger"
	"github.com/google/subcommands"
)

type gridCmd struct {
	flags      config.Flags
	geoJSON    bool
	outputPath string
}

func (c *gridCmd) Name() string     { return "grid" }
func (c *gridCmd) Synopsis() string { return "print the tile addresses of a grid" }
func (c *gridCmd) Usage() string {
	return "terrainutils grid [-lat <lat> -lon <lon> -zoom <z> -gridWidth <w>] [-geojson] [-o <path>]\n"
}
func (c *gridCmd) SetFlags(f *flag.FlagSet) {
	c.flags.Register(f)
	f.BoolVar(&c.geoJSON, "geojson", false, "Print tile footprints as GeoJSON")
	f.StringVar(&c.outputPath, "o", "", "Output file path (default stdout)")
}

func (c *gridCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := setup(f, &c.flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	defer logger.Sync()

	opts, err := terrainOptions(cfg)
	if err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitUsageError
	}
	g, err := grid.Resolve(opts.Origin, opts.Zoom, opts.Width())
	if err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitFailure
	}

	var out io.Writer = os.Stdout
	if c.outputPath != "" {
		file, err := os.Create(c.outputPath)
		if err != nil {
			logger.Sugar.Error(err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		out = file
	}

	if err := writeGrid(out, g, c.geoJSON); err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeGrid(w io.Writer, g *grid.Grid, geoJSON bool) error {
	if geoJSON {
		data, err := json.MarshalIndent(g.Footprints(), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	for k, tileID := range g.Tiles {
		i, j := g.Cell(k)
		dx, dy := g.IndexOffset(i, j)
		if _, err := fmt.Fprintf(w, "%d\t%d,%d\t%+d,%+d\t%v\n", k, i, j, dx, dy, tileID); err != nil {
			return err
		}
	}
	return nil
}
