package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/grid"
	"github.com/eak1mov/go-terraintiles/internal/config"
	"github.com/eak1mov/go-terraintiles/source"
	"github.com/eak1mov/go-terraintiles/terrain"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/eak1mov/go-terraintiles/xyz"
	"github.com/stretchr/testify/require"
)

func TestStorePath(t *testing.T) {
	require.Equal(t, filepath.Join("cache", "imagery.mbtiles"), storePath("cache", "mbtiles", fetch.LayerImagery))
	require.Equal(t, filepath.Join("cache", "elevation", "{z}", "{x}", "{y}.tile"), storePath("cache", "xyz", fetch.LayerElevation))

	require.Equal(t, "mbtiles", deduceFormat("", "a/imagery.mbtiles"))
	require.Equal(t, "xyz", deduceFormat("", "a/{z}/{x}/{y}.png"))
	require.Equal(t, "xyz", deduceFormat("xyz", "a/tiles"))
	require.Equal(t, "", deduceFormat("", "a/tiles"))
}

func TestParseColoring(t *testing.T) {
	for name, want := range map[string]terrain.Coloring{
		"none":  terrain.ColoringNone,
		"slope": terrain.ColoringSlope,
		"flat":  terrain.ColoringFlat,
		"debug": terrain.ColoringDebugEdges,
	} {
		got, err := parseColoring(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := parseColoring("rainbow")
	require.Error(t, err)
}

func TestTerrainOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Topography = true
	cfg.Coloring = "debug"
	opts, err := terrainOptions(cfg)
	require.NoError(t, err)
	require.Equal(t, geo.GeoPoint{Lon: -118, Lat: 34}, opts.Origin)
	require.Equal(t, uint32(17), opts.Zoom)
	require.Equal(t, 3, opts.Width())
	require.Equal(t, terrain.ColoringDebugEdges, opts.Coloring)
}

func TestWriteGrid(t *testing.T) {
	g, err := grid.Resolve(geo.GeoPoint{Lon: -118, Lat: 34}, 17, 3)
	require.NoError(t, err)

	var text bytes.Buffer
	require.NoError(t, writeGrid(&text, g, false))
	lines := strings.Split(strings.TrimSpace(text.String()), "\n")
	require.Len(t, lines, 9)
	require.Equal(t, "4\t1,1\t+0,+0\t"+g.OriginTile().String(), lines[4])

	var geoJSON bytes.Buffer
	require.NoError(t, writeGrid(&geoJSON, g, true))
	var decoded struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(geoJSON.Bytes(), &decoded))
	require.Equal(t, "FeatureCollection", decoded.Type)
	require.Len(t, decoded.Features, 9)
}

func TestSourcesOffline(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Cache.Dir = dir
	cfg.Cache.Format = "xyz"
	cfg.Cache.Offline = true

	tileID := tile.ID{X: 22520, Y: 52400, Z: 17}
	w, err := xyz.NewWriter(storePath(dir, "xyz", fetch.LayerImagery))
	require.NoError(t, err)
	require.NoError(t, w.WriteTile(tileID, []byte("stored")))

	fetchers, closeAll, err := sources(cfg, layersFor(false))
	require.NoError(t, err)
	defer closeAll()
	require.Len(t, fetchers, 1)

	data, err := fetchers[fetch.LayerImagery].Fetch(context.Background(), tileID)
	require.NoError(t, err)
	require.Equal(t, []byte("stored"), data)

	_, err = fetchers[fetch.LayerImagery].Fetch(context.Background(), tile.ID{X: 1, Y: 1, Z: 17})
	require.ErrorIs(t, err, source.ErrTileMissing)
}

func TestSourcesNeedToken(t *testing.T) {
	cfg := config.Default()
	_, _, err := sources(cfg, layersFor(true))
	require.ErrorIs(t, err, errMissingToken)
}
