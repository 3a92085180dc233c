// Package config loads command line tool settings from YAML, environment
// and flags.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/creasty/defaults"
	"github.com/eak1mov/go-terraintiles/geo"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidConfig = errors.New("terraintiles: invalid config")

// Config holds all tool settings.
type Config struct {
	Zoom               uint32  `yaml:"zoom" default:"17" validate:"lte=22"`
	GridWidth          int     `yaml:"grid_width" validate:"omitempty,odd"`
	Topography         bool    `yaml:"topography"`
	ResolutionExponent int     `yaml:"resolution_exponent" default:"3" validate:"gte=0,lte=9"`
	MaxAllowableSlope  float64 `yaml:"max_allowable_slope" default:"45" validate:"gte=0,lte=90"`
	Coloring           string  `yaml:"coloring" default:"slope" validate:"oneof=none slope flat debug"`

	Origin  OriginConfig  `yaml:"origin"`
	Mapbox  MapboxConfig  `yaml:"mapbox"`
	Cache   CacheConfig   `yaml:"cache"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// OriginConfig is the geographic point the grid is centered on.
type OriginConfig struct {
	Longitude float64 `yaml:"longitude" default:"-118" validate:"gte=-180,lte=180"`
	Latitude  float64 `yaml:"latitude" default:"34" validate:"gte=-85.0511,lte=85.0511"`
}

// MapboxConfig holds the tile service settings.
type MapboxConfig struct {
	BaseURL      string `yaml:"base_url" default:"https://api.mapbox.com" validate:"required,url"`
	AccessToken  string `yaml:"access_token"`
	StyleURL     string `yaml:"style_url" default:"mapbox://styles/mapbox/satellite-v9" validate:"required,startswith=mapbox://styles/"`
	TileSize     int    `yaml:"tile_size" default:"512" validate:"oneof=256 512"`
	ImageryURL   string `yaml:"imagery_url"`
	ElevationURL string `yaml:"elevation_url"`
}

// CacheConfig describes the on-disk tile store.
type CacheConfig struct {
	Dir         string `yaml:"dir"`
	Format      string `yaml:"format" default:"mbtiles" validate:"oneof=mbtiles xyz"`
	Offline     bool   `yaml:"offline"`
	MemoryItems int64  `yaml:"memory_items" default:"256" validate:"gte=0"`
}

// HTTPConfig holds HTTP client settings.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// OriginPoint returns the configured origin.
func (c *Config) OriginPoint() geo.GeoPoint {
	return geo.GeoPoint{Lon: c.Origin.Longitude, Lat: c.Origin.Latitude}
}

// Validate checks every field constraint.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("odd", isOdd); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Cache.Offline && c.Cache.Dir == "" {
		return fmt.Errorf("%w: offline mode needs cache.dir", ErrInvalidConfig)
	}
	return nil
}

func isOdd(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fl.Field().Int()%2 == 1
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fl.Field().Uint()%2 == 1
	}
	return false
}
