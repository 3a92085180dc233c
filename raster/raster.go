// Package raster decodes tile image payloads.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("terraintiles: unsupported raster format")

// Format reports the MIME type of data as detected from its content.
func Format(data []byte) string {
	return mimetype.Detect(data).String()
}

// IsImage reports whether data looks like an image payload.
func IsImage(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("image/png") || m.Is("image/jpeg") || m.Is("image/webp") {
			return true
		}
	}
	return false
}

// Decode decodes a PNG, JPEG or WebP tile.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedFormat)
	}

	mtype := mimetype.Detect(data)
	r := bytes.NewReader(data)

	var img image.Image
	var err error
	switch {
	case mtype.Is("image/png"):
		img, err = png.Decode(r)
	case mtype.Is("image/jpeg"):
		img, err = jpeg.Decode(r)
	case mtype.Is("image/webp"):
		img, err = webp.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mtype.String())
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mtype.String(), err)
	}
	return img, nil
}
