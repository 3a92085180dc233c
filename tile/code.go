package tile

import (
	"math/bits"

	"github.com/google/hilbert"
)

// Code returns the position of the tile on a hilbert curve spanning all
// zoom levels, lower zooms first. Codes are unique across the pyramid.
func (t ID) Code() uint64 {
	if t.Z == 0 {
		return 0
	}
	h, _ := hilbert.NewHilbert(1 << t.Z)
	curveIndex, _ := h.MapInverse(int(t.X), int(t.Y))

	tilesBefore := (uint64(1)<<(t.Z*2) - 1) / 3
	return tilesBefore + uint64(curveIndex)
}

// DecodeCode is the inverse of ID.Code.
func DecodeCode(code uint64) ID {
	z := (bits.Len64(3*code+1) - 1) / 2
	if z == 0 {
		return ID{}
	}
	tilesBefore := (uint64(1)<<(z*2) - 1) / 3

	h, _ := hilbert.NewHilbert(1 << z)
	x, y, _ := h.Map(int(code - tilesBefore))

	return ID{X: uint32(x), Y: uint32(y), Z: uint32(z)}
}
