package terrain

import (
	"context"
	"errors"
	"sync"

	"github.com/eak1mov/go-terraintiles/colorscale"
	"github.com/eak1mov/go-terraintiles/mesh"
	"go.uber.org/zap"
)

var ErrSuperseded = errors.New("terraintiles: load superseded by a later load")

// View owns the grid currently shown. Every access to the grid goes
// through the view lock.
type View struct {
	mu         sync.Mutex
	grid       *mesh.Grid
	opts       Options
	generation uint64
	logger     *zap.Logger
}

// NewView creates an empty view.
func NewView(logger *zap.Logger) *View {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &View{logger: logger}
}

// Load replaces the current grid with a freshly loaded one. When the load
// fails the current grid is released as well, so the view is left empty
// rather than showing terrain for a different origin. A load overtaken by a
// later call, or by Dispose, is discarded with ErrSuperseded.
func (v *View) Load(ctx context.Context, opts Options) error {
	v.mu.Lock()
	v.generation++
	generation := v.generation
	v.mu.Unlock()

	if opts.Logger == nil {
		opts.Logger = v.logger
	}
	g, err := Load(ctx, opts)

	v.mu.Lock()
	defer v.mu.Unlock()
	if generation != v.generation {
		if g != nil {
			g.Release()
		}
		return ErrSuperseded
	}
	v.releaseLocked()
	if err != nil {
		v.logger.Warn("terrain load failed", zap.Error(err))
		return err
	}
	v.grid = g
	v.opts = opts
	return nil
}

// Do calls fn with the current grid, which is nil when nothing is loaded.
// fn must not retain the grid.
func (v *View) Do(fn func(g *mesh.Grid)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.grid)
}

// Loaded reports whether a grid is present.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.grid != nil
}

// SetMaxAllowableSlope changes the slope threshold and recolors the current
// grid when it is slope colored.
func (v *View) SetMaxAllowableSlope(maxAllowable float64) error {
	if err := colorscale.ValidateThreshold(maxAllowable); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.opts.MaxAllowableSlope = maxAllowable
	if v.grid == nil || v.opts.Coloring != ColoringSlope {
		return nil
	}
	return colorscale.ClassifyGrid(v.grid, maxAllowable)
}

// Dispose releases the current grid.
func (v *View) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++
	v.releaseLocked()
}

func (v *View) releaseLocked() {
	if v.grid != nil {
		v.grid.Release()
		v.grid = nil
	}
}
