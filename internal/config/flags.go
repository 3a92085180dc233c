package config

import (
	"flag"
	"time"
)

// Flags are command line overrides. Zero values leave the loaded config
// untouched.
type Flags struct {
	ConfigPath string

	Longitude   float64
	Latitude    float64
	Zoom        uint
	GridWidth   int
	Topography  bool
	Resolution  int
	MaxSlope    float64
	Coloring    string
	AccessToken string
	StyleURL    string
	CacheDir    string
	CacheFormat string
	Offline     bool
	Timeout     time.Duration
	LogLevel    string
	LogFile     string

	f *flag.FlagSet
}

// Register binds the override flags to f. Flag names are camel case so that
// EnvName maps them to SCREAMING_SNAKE variables such as MAPBOX_ACCESS_TOKEN.
func (fl *Flags) Register(f *flag.FlagSet) {
	fl.f = f
	f.StringVar(&fl.ConfigPath, "config", "", "Path to config file")
	f.Float64Var(&fl.Longitude, "lon", 0, "Origin longitude")
	f.Float64Var(&fl.Latitude, "lat", 0, "Origin latitude")
	f.UintVar(&fl.Zoom, "zoom", 0, "Zoom level")
	f.IntVar(&fl.GridWidth, "gridWidth", 0, "Odd number of tiles per grid side")
	f.BoolVar(&fl.Topography, "topography", false, "Fetch elevation and build topography")
	f.IntVar(&fl.Resolution, "resolutionExponent", -1, "Elevation sampling exponent (0..9)")
	f.Float64Var(&fl.MaxSlope, "maxAllowableSlope", -1, "Slope threshold in degrees")
	f.StringVar(&fl.Coloring, "coloring", "", "Coloring (none, slope, flat, debug)")
	f.StringVar(&fl.AccessToken, "mapboxAccessToken", "", "Mapbox access token")
	f.StringVar(&fl.StyleURL, "mapboxStyleUrl", "", "Mapbox style URL")
	f.StringVar(&fl.CacheDir, "cacheDir", "", "Tile store directory")
	f.StringVar(&fl.CacheFormat, "cacheFormat", "", "Tile store format (mbtiles, xyz)")
	f.BoolVar(&fl.Offline, "offline", false, "Read tiles from the store only")
	f.DurationVar(&fl.Timeout, "httpTimeout", 0, "HTTP request timeout")
	f.StringVar(&fl.LogLevel, "logLevel", "", "Log level (debug, info, warn, error)")
	f.StringVar(&fl.LogFile, "logFile", "", "Log file path")
}

func (fl *Flags) apply(cfg *Config) {
	if fl.f != nil {
		fl.f.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "lon":
				cfg.Origin.Longitude = fl.Longitude
			case "lat":
				cfg.Origin.Latitude = fl.Latitude
			case "topography":
				cfg.Topography = fl.Topography
			case "offline":
				cfg.Cache.Offline = fl.Offline
			}
		})
	}
	if fl.Zoom > 0 {
		cfg.Zoom = uint32(fl.Zoom)
	}
	if fl.GridWidth != 0 {
		cfg.GridWidth = fl.GridWidth
	}
	if fl.Resolution >= 0 {
		cfg.ResolutionExponent = fl.Resolution
	}
	if fl.MaxSlope >= 0 {
		cfg.MaxAllowableSlope = fl.MaxSlope
	}
	if fl.Coloring != "" {
		cfg.Coloring = fl.Coloring
	}
	if fl.AccessToken != "" {
		cfg.Mapbox.AccessToken = fl.AccessToken
	}
	if fl.StyleURL != "" {
		cfg.Mapbox.StyleURL = fl.StyleURL
	}
	if fl.CacheDir != "" {
		cfg.Cache.Dir = fl.CacheDir
	}
	if fl.CacheFormat != "" {
		cfg.Cache.Format = fl.CacheFormat
	}
	if fl.Timeout > 0 {
		cfg.HTTP.Timeout = fl.Timeout
	}
	if fl.LogLevel != "" {
		cfg.Logging.Level = fl.LogLevel
	}
	if fl.LogFile != "" {
		cfg.Logging.LogFile = fl.LogFile
	}
}
