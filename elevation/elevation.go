// Package elevation decodes terrain-RGB rasters into height fields.
//
// Each pixel encodes a height in meters as
//
//	height = -10000 + (R*65536 + G*256 + B) * 0.1
//
// and the raster is sampled on a stride of 2^exponent pixels in both axes.
package elevation

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// MaxExponent is the largest accepted resolution exponent.
const MaxExponent = 9

var ErrInvalidResolution = errors.New("terraintiles: invalid resolution exponent")

// Field is a row-major grid of sampled heights.
type Field struct {
	Heights []float64
	Width   int
	Height  int
	Min     float64
	Max     float64
}

// At returns the height at column x and row y.
func (f *Field) At(x, y int) float64 {
	return f.Heights[y*f.Width+x]
}

// Height decodes a single terrain-RGB pixel.
func Height(r, g, b uint8) float64 {
	return -10000 + float64(int(r)*65536+int(g)*256+int(b))*0.1
}

// Stride returns the pixel sampling step for exponent.
func Stride(exponent int) (int, error) {
	if exponent < 0 || exponent > MaxExponent {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidResolution, exponent, MaxExponent)
	}
	return 1 << exponent, nil
}

// Decode samples img every 2^exponent pixels starting at its top-left corner.
// A 512 px raster yields a field of (512/2^exponent)^2 heights.
func Decode(img image.Image, exponent int) (*Field, error) {
	stride, err := Stride(exponent)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w := ceilDiv(bounds.Dx(), stride)
	h := ceilDiv(bounds.Dy(), stride)

	field := &Field{
		Heights: make([]float64, 0, w*h),
		Width:   w,
		Height:  h,
		Min:     math.Inf(1),
		Max:     math.Inf(-1),
	}

	pixel := pixelReader(img)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			r, g, b := pixel(x, y)
			v := Height(r, g, b)
			field.Min = min(field.Min, v)
			field.Max = max(field.Max, v)
			field.Heights = append(field.Heights, v)
		}
	}

	return field, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// pixelReader returns an unpremultiplied RGB accessor, reading the backing
// slice directly for the formats PNG tiles decode into.
func pixelReader(img image.Image) func(x, y int) (r, g, b uint8) {
	switch m := img.(type) {
	case *image.NRGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
		}
	case *image.RGBA:
		return func(x, y int) (uint8, uint8, uint8) {
			i := m.PixOffset(x, y)
			if a := m.Pix[i+3]; a != 0xff && a != 0 {
				c := color.NRGBAModel.Convert(m.RGBAAt(x, y)).(color.NRGBA)
				return c.R, c.G, c.B
			}
			return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
		}
	default:
		return func(x, y int) (uint8, uint8, uint8) {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			return c.R, c.G, c.B
		}
	}
}
