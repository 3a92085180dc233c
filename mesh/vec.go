package mesh

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Up is the local up axis of a tile plane.
var Up = vec3.UnitZ

// Normalize returns v scaled to unit length, or Up for a zero vector.
func Normalize(v vec3.T) vec3.T {
	l := v.Length()
	if l == 0 || math.IsNaN(l) {
		return Up
	}
	return v.Scaled(1 / l)
}
