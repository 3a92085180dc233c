// Package geo converts between geographic coordinates, spherical Web Mercator
// meters and slippy-map tile indices.
//
// All functions are pure. Tiles are treated as squares of constant side length
// per zoom level regardless of latitude, which is only accurate within the
// small region covered by one grid around a fixed origin.
package geo

import (
	"math"

	"github.com/eak1mov/go-terraintiles/tile"
	"github.com/paulmach/orb"
)

const (
	// EarthRadius is the WGS84 semi-major axis used by spherical Web Mercator.
	EarthRadius = 6378137.0

	// EarthCircumference is the equatorial circumference in meters.
	EarthCircumference = 40075016.685578

	// WebMercatorMax is the half extent of the projected world in meters.
	WebMercatorMax = 20037508.342789244

	// MaxLatitude is the latitude at which the square Web Mercator world ends.
	MaxLatitude = 85.05112877980659
)

// GeoPoint is a longitude/latitude pair in degrees.
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Point returns p as an orb point (lon, lat).
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// ProjectedPoint is a position in spherical Web Mercator meters.
type ProjectedPoint struct {
	X float64
	Y float64
}

// ToProjected applies the forward spherical Web Mercator projection.
func ToProjected(lat, lon float64) ProjectedPoint {
	return ProjectedPoint{
		X: lon * math.Pi * EarthRadius / 180,
		Y: EarthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)),
	}
}

// TileNorthWest returns the north-west corner of tile (x, y) at zoom.
// Indices one past the last tile are accepted and yield the east or south edge.
func TileNorthWest(x, y, zoom uint32) GeoPoint {
	n := math.Exp2(float64(zoom))
	lon := float64(x)/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	return GeoPoint{Lon: lon, Lat: latRad * 180 / math.Pi}
}

// TileBounds returns the south-west and north-east corners of a tile.
func TileBounds(t tile.ID) (sw, ne GeoPoint) {
	nw := TileNorthWest(t.X, t.Y, t.Z)
	se := TileNorthWest(t.X+1, t.Y+1, t.Z)
	return GeoPoint{Lon: nw.Lon, Lat: se.Lat}, GeoPoint{Lon: se.Lon, Lat: nw.Lat}
}

// TileBound returns the geographic bounds of a tile as an orb.Bound.
func TileBound(t tile.ID) orb.Bound {
	sw, ne := TileBounds(t)
	return orb.Bound{Min: sw.Point(), Max: ne.Point()}
}

// TileCenterProjected returns the center of a tile in Web Mercator meters.
func TileCenterProjected(t tile.ID) ProjectedPoint {
	n := math.Exp2(float64(t.Z))
	cx := float64(t.X) + 0.5
	cy := float64(t.Y) + 0.5
	return ProjectedPoint{
		X: (2*cx/n - 1) * WebMercatorMax,
		Y: (1 - 2*cy/n) * WebMercatorMax,
	}
}

// TileIndex returns the column and row of the tile containing (lat, lon).
// Coordinates outside the projected world are clamped to the edge tiles.
func TileIndex(lat, lon float64, zoom uint32) (x, y uint32) {
	n := math.Exp2(float64(zoom))
	latRad := lat * math.Pi / 180
	fx := math.Floor((lon + 180) / 360 * n)
	fy := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)
	return clampIndex(fx, n), clampIndex(fy, n)
}

// TileAt returns the tile containing p at zoom.
func TileAt(p GeoPoint, zoom uint32) tile.ID {
	x, y := TileIndex(p.Lat, p.Lon, zoom)
	return tile.ID{X: x, Y: y, Z: zoom}
}

func clampIndex(v, n float64) uint32 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > n-1 {
		return uint32(n - 1)
	}
	return uint32(v)
}

// TileSideLength returns the side of a tile in meters at zoom.
// It ignores latitude distortion.
func TileSideLength(zoom uint32) float64 {
	return EarthCircumference / math.Exp2(float64(zoom))
}

// OffsetMeters returns the projected vector from the center of t to origin.
func OffsetMeters(t tile.ID, origin GeoPoint) (dx, dy float64) {
	center := TileCenterProjected(t)
	p := ToProjected(origin.Lat, origin.Lon)
	return p.X - center.X, p.Y - center.Y
}
