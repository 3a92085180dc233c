package mapbox_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eak1mov/go-terraintiles/mapbox"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/eak1mov/go-terraintiles/xyz"
	"github.com/stretchr/testify/require"
)

const style = "mapbox://styles/mapbox/satellite-v9"

var testTile = tile.ID{X: 22520, Y: 52400, Z: 17}

func TestURLs(t *testing.T) {
	c, err := mapbox.NewClient("pk.secret", style)
	require.NoError(t, err)

	require.Equal(t,
		"https://api.mapbox.com/styles/v1/mapbox/satellite-v9/tiles/512/17/22520/52400@2x?access_token=pk.secret",
		c.ImageryURL(testTile))
	require.Equal(t,
		"https://api.mapbox.com/v4/mapbox.terrain-rgb/17/22520/52400@2x.pngraw?access_token=pk.secret&style=mapbox%3A%2F%2Fstyles%2Fmapbox%2Fsatellite-v9",
		c.ElevationURL(testTile))
}

func TestStyleID(t *testing.T) {
	id, err := mapbox.StyleID(style)
	require.NoError(t, err)
	require.Equal(t, "mapbox/satellite-v9", id)

	for _, bad := range []string{"", "mapbox/satellite-v9", "mapbox://styles/satellite", "mapbox://styles/a/b/c", "https://styles/a/b"} {
		_, err := mapbox.StyleID(bad)
		require.ErrorIs(t, err, mapbox.ErrInvalidStyle, bad)
	}
}

func TestInvalidTemplate(t *testing.T) {
	_, err := mapbox.NewClient("token", style, mapbox.WithImageryTemplate("{base}/{z}/{x}.png"))
	require.ErrorIs(t, err, xyz.ErrInvalidPattern)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	tileData := pngBytes(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/styles/v1/mapbox/satellite-v9/tiles/256/17/22520/52400@2x":
			if r.URL.Query().Get("access_token") != "token" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			w.Write(tileData)
		case "/v4/mapbox.terrain-rgb/17/22520/52400@2x.pngraw":
			if r.URL.Query().Get("style") != style {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			w.Write(tileData)
		case "/v4/mapbox.terrain-rgb/17/0/0@2x.pngraw":
			w.Write([]byte(`{"message":"Not Found"}`))
		default:
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}))
	defer server.Close()

	c, err := mapbox.NewClient("token", style, mapbox.WithBaseURL(server.URL+"/"), mapbox.WithTileSize(256))
	require.NoError(t, err)

	data, err := c.Imagery().Fetch(context.Background(), testTile)
	require.NoError(t, err)
	require.Equal(t, tileData, data)

	data, err = c.Elevation().Fetch(context.Background(), testTile)
	require.NoError(t, err)
	require.Equal(t, tileData, data)

	_, err = c.Imagery().Fetch(context.Background(), tile.ID{Z: 1})
	require.ErrorIs(t, err, mapbox.ErrUnexpectedStatus)
	require.ErrorContains(t, err, "403")

	_, err = c.Elevation().Fetch(context.Background(), tile.ID{Z: 17})
	require.ErrorIs(t, err, mapbox.ErrNotImage)

	require.Equal(t, int32(4), requests.Load())
}

func TestFetchHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	c, err := mapbox.NewClient("token", style, mapbox.WithBaseURL(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Imagery().Fetch(ctx, testTile)
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}
