// Package extractor rasterizes the selected region of a displayed image
// into an encoded image, honoring device pixel density and optional
// circular masking.
package extractor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/skoret/image-cropper/pkg/mimetype"
	"github.com/skoret/image-cropper/pkg/source"
	"github.com/skoret/image-cropper/pkg/types"
)

// DefaultMimeType is the output encoding used when the source's MIME type
// cannot be determined.
const DefaultMimeType = "image/png"

var (
	// ErrNoCrop signals there is nothing to extract. Callers treat it as
	// a no-op, not a failure.
	ErrNoCrop = errors.New("extractor: no crop to extract")
	// ErrNoImage signals the source image required for extraction is
	// missing.
	ErrNoImage = errors.New("extractor: no source image")
)

// Extractor converts a crop plus a loaded image view into an encoded
// raster image, consulting a mimetype.Resolver for the output format.
type Extractor struct {
	resolver *mimetype.Resolver
	log      *slog.Logger
}

// New creates an Extractor using the given resolver. A nil logger
// defaults to slog.Default().
func New(resolver *mimetype.Resolver, logger *slog.Logger) *Extractor {
	if resolver == nil {
		resolver = mimetype.NewResolver()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{resolver: resolver, log: logger}
}

// Extract rasterizes exactly the pixels selected by crop from view and
// returns them as a base64 data URI.
//
// The crop is normalized to displayed pixels, then mapped to natural
// coordinates so output is full resolution regardless of how small the
// image is shown. Non-circular output is oversampled by view.PixelRatio;
// circular output is sized exactly crop.Width x crop.Height with a
// centered circular mask of radius crop.Height/2.
func (e *Extractor) Extract(ctx context.Context, crop types.Crop, view *source.ImageView, circular bool) (string, error) {
	if view == nil || view.Image == nil {
		return "", ErrNoImage
	}
	if crop.Empty() {
		return "", ErrNoCrop
	}

	displayed := view.Displayed
	if displayed.IsZero() {
		displayed = view.NaturalSize()
	}
	px := crop.ToPixels(displayed)
	if px.Empty() {
		return "", ErrNoCrop
	}

	natural := view.NaturalSize()
	scaleX := natural.Width / displayed.Width
	scaleY := natural.Height / displayed.Height

	srcRect := image.Rect(
		int(math.Round(px.X*scaleX)),
		int(math.Round(px.Y*scaleY)),
		int(math.Round((px.X+px.Width)*scaleX)),
		int(math.Round((px.Y+px.Height)*scaleY)),
	).Intersect(view.Image.Bounds())
	if srcRect.Empty() {
		return "", ErrNoCrop
	}

	pixelRatio := view.PixelRatio
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	if circular {
		// Circular output is never density-oversampled.
		pixelRatio = 1
	}
	outW := int(math.Round(px.Width * pixelRatio))
	outH := int(math.Round(px.Height * pixelRatio))
	if outW < 1 || outH < 1 {
		return "", ErrNoCrop
	}

	region := imaging.Crop(view.Image, srcRect)
	out := imaging.Resize(region, outW, outH, imaging.Lanczos)

	var raster image.Image = out
	if circular {
		raster = applyCircleMask(out)
	}

	mimeType := e.resolver.Resolve(ctx, view.Source)
	if mimeType == "" {
		mimeType = DefaultMimeType
	}

	data, encodedAs, err := encode(raster, mimeType)
	if err != nil {
		return "", fmt.Errorf("failed to encode extraction: %w", err)
	}
	if encodedAs != mimeType {
		e.log.Debug("unsupported output encoding, defaulted",
			"requested", mimeType, "used", encodedAs)
	}

	return "data:" + encodedAs + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
