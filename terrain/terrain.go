// Package terrain runs the load cycle turning a geographic origin into a
// stitched, colored grid of tile meshes, and owns the grid between loads.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/eak1mov/go-terraintiles/colorscale"
	"github.com/eak1mov/go-terraintiles/elevation"
	"github.com/eak1mov/go-terraintiles/fetch"
	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/eak1mov/go-terraintiles/grid"
	"github.com/eak1mov/go-terraintiles/mesh"
	"github.com/eak1mov/go-terraintiles/tile"
	"go.uber.org/zap"
)

const (
	DefaultZoom               = 17
	DefaultResolutionExponent = 3
	DefaultMaxAllowableSlope  = 45
)

var (
	ErrMissingImagerySource   = errors.New("terraintiles: no imagery source")
	ErrMissingElevationSource = errors.New("terraintiles: topography requested without an elevation source")
)

// Coloring selects how tile vertices are colored after stitching.
type Coloring int

const (
	// ColoringNone leaves vertex colors unset; only the imagery texture shows.
	ColoringNone Coloring = iota
	// ColoringSlope colors faces by slope against MaxAllowableSlope.
	ColoringSlope
	// ColoringFlat paints every face with FlatColor.
	ColoringFlat
	// ColoringDebugEdges reveals tile edges and grid placement.
	ColoringDebugEdges
)

// Options describes one load.
type Options struct {
	Origin geo.GeoPoint
	Zoom   uint32

	// GridWidth is the odd number of tiles per side; 0 picks 3 with
	// topography and 5 without.
	GridWidth int

	Topography         bool
	ResolutionExponent int
	MaxAllowableSlope  float64
	Coloring           Coloring
	FlatColor          color.RGBA

	Imagery   fetch.Fetcher
	Elevation fetch.Fetcher

	Logger   *zap.Logger
	Progress func(tile.ID)
}

// DefaultOptions returns options for the given origin with default settings.
func DefaultOptions(origin geo.GeoPoint) Options {
	return Options{
		Origin:             origin,
		Zoom:               DefaultZoom,
		ResolutionExponent: DefaultResolutionExponent,
		MaxAllowableSlope:  DefaultMaxAllowableSlope,
	}
}

// Width returns the effective grid width.
func (o *Options) Width() int {
	if o.GridWidth != 0 {
		return o.GridWidth
	}
	if o.Topography {
		return 3
	}
	return 5
}

func (o *Options) validate() error {
	if o.Imagery == nil {
		return ErrMissingImagerySource
	}
	if o.Topography {
		if o.Elevation == nil {
			return ErrMissingElevationSource
		}
		if _, err := elevation.Stride(o.ResolutionExponent); err != nil {
			return err
		}
	}
	if o.Coloring == ColoringSlope {
		if err := colorscale.ValidateThreshold(o.MaxAllowableSlope); err != nil {
			return err
		}
	}
	return nil
}

// Load resolves, fetches, builds, stitches and colors a tile grid. On error
// nothing is returned and no partial state survives.
func Load(ctx context.Context, opts Options) (*mesh.Grid, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	g, err := grid.Resolve(opts.Origin, opts.Zoom, opts.Width())
	if err != nil {
		return nil, err
	}
	logger.Info("grid resolved",
		zap.Stringer("origin_tile", g.OriginTile()),
		zap.Int("width", g.Width),
		zap.Uint32("zoom", g.Zoom))

	fetchOpts := []fetch.Option{fetch.WithLogger(logger)}
	if opts.Progress != nil {
		fetchOpts = append(fetchOpts, fetch.WithProgress(opts.Progress))
	}
	if opts.Topography {
		fetchOpts = append(fetchOpts, fetch.WithElevation(opts.Elevation, opts.ResolutionExponent))
	}

	meshes, err := fetch.FetchAll(ctx, g, opts.Imagery, fetchOpts...)
	if err != nil {
		return nil, err
	}

	if opts.Topography {
		mesh.Stitch(meshes)
		meshes.ComputeNormals()
		logger.Debug("grid stitched", zap.Int("tiles", g.Width*g.Width))
	}

	if err := applyColoring(meshes, &opts); err != nil {
		meshes.Release()
		return nil, err
	}

	logger.Info("terrain loaded", zap.Duration("elapsed", time.Since(start)))
	return meshes, nil
}

func applyColoring(g *mesh.Grid, opts *Options) error {
	switch opts.Coloring {
	case ColoringSlope:
		return colorscale.ClassifyGrid(g, opts.MaxAllowableSlope)
	case ColoringFlat:
		for _, t := range g.All() {
			colorscale.Flat(t, opts.FlatColor)
		}
	case ColoringDebugEdges:
		colorscale.DebugEdges(g)
	case ColoringNone:
	default:
		return fmt.Errorf("terraintiles: unknown coloring %d", opts.Coloring)
	}
	return nil
}
