// Package colorscale colors terrain meshes by slope.
package colorscale

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/eak1mov/go-terraintiles/mesh"
	"github.com/ungerik/go3d/float64/vec3"
)

var ErrInvalidSlopeThreshold = errors.New("terraintiles: slope threshold must be within [0, 90] degrees")

// Ramp is the slope ramp from gentle to steep.
var Ramp = []color.RGBA{
	{R: 0x69, G: 0xce, B: 0x82, A: 0xff},
	{R: 0xd6, G: 0xd8, B: 0x63, A: 0xff},
	{R: 0xce, G: 0x7e, B: 0x69, A: 0xff},
}

// Angle returns the angle in degrees between normal and up.
func Angle(normal, up vec3.T) float64 {
	n, u := mesh.Normalize(normal), mesh.Normalize(up)
	cos := max(-1, min(1, vec3.Dot(&n, &u)))
	return math.Acos(cos) * 180 / math.Pi
}

// Slope returns the ramp color for a slope of angle degrees given the
// largest acceptable slope.
func Slope(angle, maxAllowable float64) color.RGBA {
	t := 1.0
	if maxAllowable > 0 {
		t = min(angle, maxAllowable) / maxAllowable
	}
	t = max(0, t)
	bucket := int(math.Floor(float64(len(Ramp)-1) * t))
	return Ramp[min(bucket, len(Ramp)-1)]
}

// ValidateThreshold checks that maxAllowable is a slope in [0, 90] degrees.
func ValidateThreshold(maxAllowable float64) error {
	if !(maxAllowable >= 0 && maxAllowable <= 90) {
		return fmt.Errorf("%w: got %v", ErrInvalidSlopeThreshold, maxAllowable)
	}
	return nil
}

// Classify colors every face corner of t by the slope of its vertex normal.
func Classify(t *mesh.Tile, maxAllowable float64) error {
	if err := ValidateThreshold(maxAllowable); err != nil {
		return err
	}
	colors := faceColors(t)
	for f, face := range t.Faces {
		for corner, k := range [3]uint32{face.A, face.B, face.C} {
			colors[f][corner] = Slope(Angle(t.Normals[k], mesh.Up), maxAllowable)
		}
	}
	return nil
}

// ClassifyGrid classifies every tile of g.
func ClassifyGrid(g *mesh.Grid, maxAllowable float64) error {
	if err := ValidateThreshold(maxAllowable); err != nil {
		return err
	}
	for _, t := range g.All() {
		if t == nil {
			continue
		}
		if err := Classify(t, maxAllowable); err != nil {
			return err
		}
	}
	return nil
}

// Flat paints every face corner of t with c.
func Flat(t *mesh.Tile, c color.RGBA) {
	colors := faceColors(t)
	for f := range colors {
		colors[f] = [3]color.RGBA{c, c, c}
	}
}

// DebugEdges paints tiles to reveal their orientation within the grid: the
// leading faces of each tile fade from red to yellow, the rest carry a color
// encoding the tile's grid cell.
func DebugEdges(g *mesh.Grid) {
	for cell, t := range g.All() {
		if t == nil {
			continue
		}
		width := math.Sqrt(float64(len(t.Positions))) * 2
		denom := float64(max(g.Width-1, 1))
		cellColor := color.RGBA{
			R: unit(float64(cell[0]) / denom),
			B: unit(float64(cell[1]) / denom),
			A: 0xff,
		}
		colors := faceColors(t)
		for f := range colors {
			c := cellColor
			if float64(f) < width {
				c = color.RGBA{R: 0xff, G: unit(float64(f) / width), A: 0xff}
			}
			colors[f] = [3]color.RGBA{c, c, c}
		}
	}
}

func unit(v float64) uint8 {
	return uint8(math.Round(max(0, min(1, v)) * 255))
}

func faceColors(t *mesh.Tile) [][3]color.RGBA {
	if len(t.FaceColors) != len(t.Faces) {
		t.FaceColors = make([][3]color.RGBA, len(t.Faces))
	}
	return t.FaceColors
}
