// Package xyz reads and writes tiles laid out by a "{z}/{x}/{y}" pattern,
// either as files on disk or as URL templates.
package xyz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eak1mov/go-terraintiles/tile"
)

var ErrInvalidPattern = errors.New("terraintiles: invalid tile pattern")

// ValidatePattern checks that pattern holds all of the {x}, {y} and {z} placeholders.
func ValidatePattern(pattern string) error {
	for _, p := range []string{"{x}", "{y}", "{z}"} {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found in %q", ErrInvalidPattern, p, pattern)
		}
	}
	return nil
}

// FormatPattern substitutes the tile coordinates into pattern.
func FormatPattern(pattern string, tileID tile.ID) string {
	return strings.NewReplacer(
		"{x}", strconv.FormatUint(uint64(tileID.X), 10),
		"{y}", strconv.FormatUint(uint64(tileID.Y), 10),
		"{z}", strconv.FormatUint(uint64(tileID.Z), 10),
	).Replace(pattern)
}
