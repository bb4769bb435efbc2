package extractor

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
)

// maxQuality is used for lossy encoders; extraction output always encodes
// at maximum quality.
const maxQuality = 100

// encode serializes the raster to the requested MIME type at maximum
// quality. Unsupported types fall back to PNG; the MIME type actually
// used is returned alongside the bytes.
func encode(img image.Image, mimeType string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch mimeType {
	case "image/jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: maxQuality}); err != nil {
			return nil, "", err
		}
	case "image/gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
	case "image/webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: maxQuality}); err != nil {
			return nil, "", err
		}
	case "image/png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	}
	return buf.Bytes(), mimeType, nil
}

// circleMask is an alpha mask that is opaque inside a circle and fully
// transparent outside it.
type circleMask struct {
	cx, cy, r float64
	bounds    image.Rectangle
}

func (m *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (m *circleMask) Bounds() image.Rectangle { return m.bounds }

func (m *circleMask) At(x, y int) color.Color {
	dx := float64(x) + 0.5 - m.cx
	dy := float64(y) + 0.5 - m.cy
	if dx*dx+dy*dy <= m.r*m.r {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}

// applyCircleMask clips the raster to a centered circle whose radius is
// half the raster height. Pixels outside the circle become transparent.
func applyCircleMask(img image.Image) image.Image {
	b := img.Bounds()
	mask := &circleMask{
		cx:     float64(b.Min.X) + float64(b.Dx())/2,
		cy:     float64(b.Min.Y) + float64(b.Dy())/2,
		r:      float64(b.Dy()) / 2,
		bounds: b,
	}
	out := image.NewNRGBA(b)
	draw.DrawMask(out, b, img, b.Min, mask, b.Min, draw.Over)
	return out
}
