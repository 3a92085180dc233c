package main

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/eak1mov/go-terraintiles/internal/logger"
	"github.com/eak1mov/go-terraintiles/mb"
	"github.com/eak1mov/go-terraintiles/raster"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/google/subcommands"
)

type inspectCmd struct {
	inputFormat string
	inputPath   string
	list        bool
}

func (c *inspectCmd) Name() string     { return "inspect" }
func (c *inspectCmd) Synopsis() string { return "summarize the contents of a tile store" }
func (c *inspectCmd) Usage() string {
	return "terrainutils inspect -i <path> [-if <format>] [-list]\n"
}
func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input store path (MBTiles file or XYZ pattern)")
	f.StringVar(&c.inputFormat, "if", "", "Input store format (mbtiles, xyz)")
	f.BoolVar(&c.list, "list", false, "List every tile with its size and format")
}

func (c *inspectCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	s, err := openStore(c.inputPath, c.inputFormat, "", true)
	if err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitFailure
	}
	defer s.close()

	if r, ok := s.reader.(*mb.Reader); ok {
		metadata := r.Metadata().Raw
		for _, name := range slices.Sorted(maps.Keys(metadata)) {
			fmt.Printf("%s: %s\n", name, metadata[name])
		}
	}

	visitor, ok := s.reader.(tile.Visitor)
	if !ok {
		logger.Sugar.Errorf("store %s cannot be enumerated", c.inputPath)
		return subcommands.ExitFailure
	}

	if c.list {
		for tileID, tileData := range tile.IterTiles(visitor) {
			fmt.Printf("%v\t%d\t%s\n", tileID, len(tileData), raster.Format(tileData))
		}
	}

	zooms, err := tile.Zooms(visitor)
	if err != nil {
		logger.Sugar.Error(err)
		return subcommands.ExitFailure
	}
	for _, z := range slices.Sorted(maps.Keys(zooms)) {
		fmt.Printf("zoom %d: %d tiles\n", z, zooms[z])
	}
	return subcommands.ExitSuccess
}
