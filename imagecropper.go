// Package imagecropper implements the crop-geometry and extraction engine
// behind an interactive image-crop component.
//
// A Cropper owns a single Crop value describing the selected region of a
// displayed image. It initializes the crop against image and aspect
// constraints when an image is set, keeps it proportionally correct as
// the displayed image is resized, and rasterizes exactly the selected
// pixels into an encoded image whenever a selection completes.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		imagecropper "github.com/skoret/image-cropper"
//		"github.com/skoret/image-cropper/pkg/source"
//	)
//
//	func main() {
//		cropper := imagecropper.New(imagecropper.Options{Aspect: 1})
//		cropper.OnCroppedImage(func(dataURI string) {
//			fmt.Println("cropped:", len(dataURI), "bytes")
//		})
//
//		view, err := source.NewLoader().Load(context.Background(), "photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Emits the first cropped image immediately.
//		if err := cropper.SetImage(context.Background(), view); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The interactive drag/resize UI is an external collaborator: it reads the
// current crop via Crop(), reports continuous edits via HandleCropChange,
// and finished interactions via HandleCropComplete. A displayed-box
// observer reports size changes via HandleResize.
package imagecropper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/skoret/image-cropper/pkg/extractor"
	"github.com/skoret/image-cropper/pkg/geometry"
	"github.com/skoret/image-cropper/pkg/mimetype"
	"github.com/skoret/image-cropper/pkg/source"
	"github.com/skoret/image-cropper/pkg/types"
)

// Version of the image cropper library
const Version = "1.0.0"

// Options configures a Cropper. All fields are optional; the zero value
// yields an unconstrained rectangular cropper.
type Options struct {
	// Crop is the initial crop hint, possibly under-specified (for
	// example aspect-only selections leave it zero).
	Crop *types.Crop
	// Aspect, when positive, locks the crop to this width/height ratio.
	Aspect float64
	// Circular masks extraction output to a centered circle.
	Circular bool
	// RetainSelection keeps the current selection when a new image is
	// set instead of re-initializing from the Crop hint.
	RetainSelection bool

	// Passive inputs forwarded to the crop-interaction surface.
	Disabled     bool
	Locked       bool
	MinWidth     float64
	MinHeight    float64
	MaxWidth     float64
	MaxHeight    float64
	RuleOfThirds bool
	Alt          string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// HTTPClient is used for MIME resolution. Defaults to a client with
	// a 30s timeout.
	HTTPClient *http.Client
}

// Cropper is the crop-geometry and extraction engine. It is the single
// writer of the Crop value; the interaction surface and extractor are
// readers.
type Cropper struct {
	opts Options
	log  *slog.Logger

	resolver  *mimetype.Resolver
	extractor *extractor.Extractor

	mu       sync.Mutex
	rescaler geometry.Rescaler
	view     *source.ImageView
	crop     types.Crop
	hasCrop  bool
	closed   bool

	seq       atomic.Uint64
	onCropped func(dataURI string)
}

// New creates a Cropper with the given options.
func New(opts Options) *Cropper {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := mimetype.NewResolverWith(opts.HTTPClient, logger)
	return &Cropper{
		opts:      opts,
		log:       logger,
		resolver:  resolver,
		extractor: extractor.New(resolver, logger),
	}
}

// OnCroppedImage registers the single outbound notification: fn receives
// the encoded image as a data URI after every successful extraction (on
// image load and on each completed selection).
func (c *Cropper) OnCroppedImage(fn func(dataURI string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCropped = fn
}

// SetImage installs a freshly loaded image, initializes the crop against
// the displayed size and aspect constraint, records the resize baseline,
// and performs the load-time extraction so a consumer has an encoded
// result without waiting for interaction.
func (c *Cropper) SetImage(ctx context.Context, view *source.ImageView) error {
	if view == nil || view.Image == nil {
		return extractor.ErrNoImage
	}

	c.mu.Lock()
	c.view = view

	requested := types.Crop{}
	switch {
	case c.opts.RetainSelection && c.hasCrop:
		requested = c.crop
	case c.opts.Crop != nil:
		requested = *c.opts.Crop
	}

	c.crop = geometry.Initialize(requested, c.opts.Aspect, view.Displayed)
	c.hasCrop = !c.crop.Empty()
	c.rescaler.SetBaseline(view.Displayed)
	c.mu.Unlock()

	return c.extractAndDispatch(ctx)
}

// Crop returns the current crop and whether one exists. The interaction
// surface reads this to render the selection.
func (c *Cropper) Crop() (types.Crop, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.crop, c.hasCrop
}

// HandleCropChange records a continuous selection edit from the
// interaction surface. No extraction is performed.
func (c *Cropper) HandleCropChange(crop types.Crop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.opts.Disabled || c.opts.Locked {
		return
	}
	c.crop = crop
	c.hasCrop = !crop.Empty()
}

// HandleCropComplete records a finished interaction and extracts the
// selected region, dispatching the encoded result.
func (c *Cropper) HandleCropComplete(ctx context.Context, crop types.Crop) error {
	c.mu.Lock()
	if c.closed || c.opts.Disabled || c.opts.Locked {
		c.mu.Unlock()
		return nil
	}
	c.crop = crop
	c.hasCrop = !crop.Empty()
	c.mu.Unlock()

	return c.extractAndDispatch(ctx)
}

// HandleResize handles a size-changed signal from the displayed image's
// box observer, rescaling the crop proportionally relative to the
// previously observed size. It does not re-trigger extraction.
func (c *Cropper) HandleResize(next types.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !c.hasCrop {
		return
	}
	if rescaled, ok := c.rescaler.Observe(next, c.crop); ok {
		c.crop = rescaled
		if c.view != nil {
			c.view.Displayed = next
		}
	}
}

// Close tears the component down. In-flight extractions may still finish
// (and their MIME cache writes still occur) but nothing is dispatched
// afterwards.
func (c *Cropper) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// extractAndDispatch runs one extraction tagged with a sequence number;
// results that are no longer the latest requested are dropped instead of
// dispatched, so a slow early extraction can never overwrite a newer one.
func (c *Cropper) extractAndDispatch(ctx context.Context) error {
	seq := c.seq.Add(1)

	c.mu.Lock()
	crop, hasCrop := c.crop, c.hasCrop
	view := c.view
	onCropped := c.onCropped
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return nil
	}
	if !hasCrop || view == nil {
		// Missing geometry is a no-op, not an error.
		return nil
	}

	dataURI, err := c.extractor.Extract(ctx, crop, view, c.opts.Circular)
	if errors.Is(err, extractor.ErrNoCrop) {
		return nil
	}
	if err != nil {
		c.log.Error("extraction failed", "error", err)
		return err
	}

	c.mu.Lock()
	stale := c.closed || seq != c.seq.Load()
	c.mu.Unlock()
	if stale || onCropped == nil {
		return nil
	}
	onCropped(dataURI)
	return nil
}
