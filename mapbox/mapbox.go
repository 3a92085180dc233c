// Package mapbox fetches raster imagery and terrain-RGB tiles from the
// Mapbox tile APIs or any server following the same URL layout.
package mapbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/raster"
	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/eak1mov/go-terraintiles/xyz"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL  = "https://api.mapbox.com"
	DefaultTileSize = 512

	// Templates support {base}, {style}, {style_url}, {size}, {token} and the
	// {z}/{x}/{y} tile placeholders.
	DefaultImageryTemplate   = "{base}/styles/v1/{style}/tiles/{size}/{z}/{x}/{y}@2x?access_token={token}"
	DefaultElevationTemplate = "{base}/v4/mapbox.terrain-rgb/{z}/{x}/{y}@2x.pngraw?access_token={token}&style={style_url}"

	stylePrefix = "mapbox://styles/"
)

var (
	ErrUnexpectedStatus = errors.New("terraintiles: unexpected HTTP status")
	ErrNotImage         = errors.New("terraintiles: response is not an image")
	ErrInvalidStyle     = errors.New("terraintiles: invalid style URL")
)

// Client builds tile URLs and downloads tiles.
type Client struct {
	httpClient        *http.Client
	baseURL           string
	accessToken       string
	styleURL          string
	styleID           string
	tileSize          int
	imageryTemplate   string
	elevationTemplate string
	logger            *zap.Logger
}

type clientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	TileSize          int
	ImageryTemplate   string
	ElevationTemplate string
	Logger            *zap.Logger
}

type Option func(*clientConfig)

func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) { cfg.HTTPClient = c }
}

// WithTimeout bounds every request made by the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.HTTPClient = &http.Client{Timeout: d} }
}

func WithBaseURL(baseURL string) Option {
	return func(cfg *clientConfig) { cfg.BaseURL = baseURL }
}

func WithTileSize(size int) Option {
	return func(cfg *clientConfig) { cfg.TileSize = size }
}

// WithImageryTemplate overrides the imagery URL template.
func WithImageryTemplate(template string) Option {
	return func(cfg *clientConfig) { cfg.ImageryTemplate = template }
}

// WithElevationTemplate overrides the terrain-RGB URL template.
func WithElevationTemplate(template string) Option {
	return func(cfg *clientConfig) { cfg.ElevationTemplate = template }
}

func WithLogger(logger *zap.Logger) Option {
	return func(cfg *clientConfig) { cfg.Logger = logger }
}

// NewClient creates a client for the given access token and style URL
// (mapbox://styles/{user}/{id}).
func NewClient(accessToken, styleURL string, opts ...Option) (*Client, error) {
	cfg := clientConfig{
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		BaseURL:           DefaultBaseURL,
		TileSize:          DefaultTileSize,
		ImageryTemplate:   DefaultImageryTemplate,
		ElevationTemplate: DefaultElevationTemplate,
		Logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	styleID, err := StyleID(styleURL)
	if err != nil {
		return nil, err
	}
	for _, template := range []string{cfg.ImageryTemplate, cfg.ElevationTemplate} {
		if err := xyz.ValidatePattern(template); err != nil {
			return nil, err
		}
	}

	return &Client{
		httpClient:        cfg.HTTPClient,
		baseURL:           strings.TrimSuffix(cfg.BaseURL, "/"),
		accessToken:       accessToken,
		styleURL:          styleURL,
		styleID:           styleID,
		tileSize:          cfg.TileSize,
		imageryTemplate:   cfg.ImageryTemplate,
		elevationTemplate: cfg.ElevationTemplate,
		logger:            cfg.Logger,
	}, nil
}

// StyleID extracts "{user}/{id}" from a mapbox://styles/{user}/{id} URL.
func StyleID(styleURL string) (string, error) {
	id, found := strings.CutPrefix(styleURL, stylePrefix)
	if !found || strings.Count(id, "/") != 1 || strings.HasPrefix(id, "/") || strings.HasSuffix(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidStyle, styleURL)
	}
	return id, nil
}

func (c *Client) expand(template string, tileID tile.ID) string {
	s := strings.NewReplacer(
		"{base}", c.baseURL,
		"{style}", c.styleID,
		"{style_url}", url.QueryEscape(c.styleURL),
		"{size}", strconv.Itoa(c.tileSize),
		"{token}", url.QueryEscape(c.accessToken),
	).Replace(template)
	return xyz.FormatPattern(s, tileID)
}

// ImageryURL returns the URL of the imagery tile.
func (c *Client) ImageryURL(tileID tile.ID) string {
	return c.expand(c.imageryTemplate, tileID)
}

// ElevationURL returns the URL of the terrain-RGB tile.
func (c *Client) ElevationURL(tileID tile.ID) string {
	return c.expand(c.elevationTemplate, tileID)
}

// Imagery returns a fetcher for imagery tiles.
func (c *Client) Imagery() fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		return c.get(ctx, c.ImageryURL(tileID))
	})
}

// Elevation returns a fetcher for terrain-RGB tiles.
func (c *Client) Elevation() fetch.Fetcher {
	return fetch.FetcherFunc(func(ctx context.Context, tileID tile.ID) ([]byte, error) {
		return c.get(ctx, c.ElevationURL(tileID))
	})
}

// Fetcher returns the fetcher of layer.
func (c *Client) Fetcher(layer fetch.Layer) fetch.Fetcher {
	if layer == fetch.LayerElevation {
		return c.Elevation()
	}
	return c.Imagery()
}

func (c *Client) get(ctx context.Context, tileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection is reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !raster.IsImage(data) {
		return nil, fmt.Errorf("%w: got %s", ErrNotImage, raster.Format(data))
	}

	c.logger.Debug("tile downloaded", zap.String("url", redact(tileURL)), zap.Int("bytes", len(data)))
	return data, nil
}

// redact hides the access token in logged URLs.
func redact(tileURL string) string {
	u, err := url.Parse(tileURL)
	if err != nil {
		return tileURL
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
