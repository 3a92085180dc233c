package terrain_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/eak1mov/go-terraintiles/colorscale"
	"github.com/eak1mov/go-terraintiles/elevation"
	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/mesh"
	"github.com/eak1mov/go-terraintiles/terrain"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/stretchr/testify/require"
)

var origin = geo.GeoPoint{Lon: -118, Lat: 34}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imagery(t *testing.T) fetch.Fetcher {
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 4, 4)))
	return fetch.FetcherFunc(func(context.Context, tile.ID) ([]byte, error) { return data, nil })
}

// terrainSource serves 512 px terrain-RGB tiles whose heights differ per tile,
// so neighbouring edges disagree until stitched.
func terrainSource() fetch.Fetcher {
	return fetch.FetcherFunc(func(_ context.Context, tileID tile.ID) ([]byte, error) {
		img := image.NewNRGBA(image.Rect(0, 0, 512, 512))
		for y := range 512 {
			for x := range 512 {
				dm := 100000 + int(tileID.X%7)*300 + int(tileID.Y%5)*200 + x/4 + y/8
				img.SetNRGBA(x, y, color.NRGBA{R: uint8(dm >> 16), G: uint8(dm >> 8), B: uint8(dm), A: 255})
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

func TestLoadFlat(t *testing.T) {
	opts := terrain.DefaultOptions(origin)
	opts.GridWidth = 3
	opts.Imagery = imagery(t)

	g, err := terrain.Load(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 3, g.Width)

	center := g.Tiles[1][1]
	require.Equal(t, geo.TileAt(origin, 17), center.ID)
	for _, m := range g.All() {
		require.Len(t, m.Positions, 4)
		for _, p := range m.Positions {
			require.Zero(t, p[2])
		}
		require.Nil(t, m.FaceColors)
	}
}

func TestLoadAutoWidth(t *testing.T) {
	opts := terrain.DefaultOptions(origin)
	require.Equal(t, 5, opts.Width())
	opts.Topography = true
	require.Equal(t, 3, opts.Width())
	opts.GridWidth = 7
	require.Equal(t, 7, opts.Width())
}

func TestLoadTopography(t *testing.T) {
	opts := terrain.DefaultOptions(origin)
	opts.Topography = true
	opts.Coloring = terrain.ColoringSlope
	opts.Imagery = imagery(t)
	opts.Elevation = terrainSource()

	g, err := terrain.Load(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 3, g.Width)

	for cell, m := range g.All() {
		require.Len(t, m.Positions, 4096, "cell %v", cell)
		require.Len(t, m.Faces, 63*63*2)
		require.Len(t, m.FaceColors, len(m.Faces))
	}
	for i := range 3 {
		for j := range 3 {
			m := g.Tiles[i][j]
			if right := g.At(i+1, j); right != nil {
				for y := range 64 {
					require.Equal(t, m.Height(63, y), right.Height(0, y))
				}
			}
			if bottom := g.At(i, j+1); bottom != nil {
				for x := range 64 {
					require.Equal(t, m.Height(x, 63), bottom.Height(x, 0))
				}
			}
		}
	}
}

func TestLoadCoarsestResolution(t *testing.T) {
	opts := terrain.DefaultOptions(origin)
	opts.Topography = true
	opts.ResolutionExponent = elevation.MaxExponent
	opts.Imagery = imagery(t)
	opts.Elevation = terrainSource()

	g, err := terrain.Load(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 3, g.Width)

	for _, m := range g.All() {
		require.Len(t, m.Positions, 4)
		require.Len(t, m.Faces, 2)
	}
	for i := range 3 {
		for j := range 3 {
			m := g.Tiles[i][j]
			if right := g.At(i+1, j); right != nil {
				for y := range 2 {
					require.Equal(t, m.Height(1, y), right.Height(0, y))
				}
			}
			if bottom := g.At(i, j+1); bottom != nil {
				for x := range 2 {
					require.Equal(t, m.Height(x, 1), bottom.Height(x, 0))
				}
			}
		}
	}
}

func TestLoadElevationFailure(t *testing.T) {
	opts := terrain.DefaultOptions(origin)
	opts.Topography = true
	opts.Imagery = imagery(t)
	healthy := terrainSource()
	failing := geo.TileAt(origin, 17)
	opts.Elevation = fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		if tileID == failing {
			return nil, errors.New("502 Bad Gateway")
		}
		return healthy.Fetch(ctx, tileID)
	})

	g, err := terrain.Load(context.Background(), opts)
	require.Nil(t, g)
	require.ErrorIs(t, err, fetch.ErrTileFetchFailed)
}

func TestLoadValidation(t *testing.T) {
	opts := terrain.DefaultOptions(origin)
	_, err := terrain.Load(context.Background(), opts)
	require.ErrorIs(t, err, terrain.ErrMissingImagerySource)

	opts.Imagery = imagery(t)
	opts.Topography = true
	_, err = terrain.Load(context.Background(), opts)
	require.ErrorIs(t, err, terrain.ErrMissingElevationSource)

	opts.Topography = false
	opts.GridWidth = 4
	_, err = terrain.Load(context.Background(), opts)
	require.Error(t, err)

	opts.GridWidth = 3
	opts.Coloring = terrain.ColoringSlope
	opts.MaxAllowableSlope = 91
	_, err = terrain.Load(context.Background(), opts)
	require.ErrorIs(t, err, colorscale.ErrInvalidSlopeThreshold)
}

func TestViewLifecycle(t *testing.T) {
	v := terrain.NewView(nil)
	require.False(t, v.Loaded())

	opts := terrain.DefaultOptions(origin)
	opts.GridWidth = 1
	opts.Topography = true
	opts.Coloring = terrain.ColoringSlope
	opts.MaxAllowableSlope = 0
	opts.Imagery = imagery(t)
	opts.Elevation = terrainSource()
	require.NoError(t, v.Load(context.Background(), opts))
	require.True(t, v.Loaded())

	faceColor := func() color.RGBA {
		var c color.RGBA
		v.Do(func(g *mesh.Grid) { c = g.Tiles[0][0].FaceColors[0][0] })
		return c
	}
	require.Equal(t, colorscale.Ramp[2], faceColor())

	require.NoError(t, v.SetMaxAllowableSlope(90))
	require.Equal(t, colorscale.Ramp[0], faceColor())

	require.ErrorIs(t, v.SetMaxAllowableSlope(91), colorscale.ErrInvalidSlopeThreshold)
	require.Equal(t, colorscale.Ramp[0], faceColor())

	// a failed load leaves no stale terrain behind
	opts.Elevation = fetch.FetcherFunc(func(context.Context, tile.ID) ([]byte, error) {
		return nil, errors.New("offline")
	})
	require.ErrorIs(t, v.Load(context.Background(), opts), fetch.ErrTileFetchFailed)
	require.False(t, v.Loaded())

	opts.Elevation = terrainSource()
	require.NoError(t, v.Load(context.Background(), opts))
	v.Dispose()
	require.False(t, v.Loaded())
	v.Do(func(g *mesh.Grid) { require.Nil(t, g) })
}
