// Package source loads image assets from files, http(s) URLs, and data
// URIs, and pairs the decoded pixels with the displayed geometry the crop
// engine works against.
package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/skoret/image-cropper/pkg/types"
)

// ImageView is a loaded image as the crop engine sees it: natural-resolution
// pixels plus the geometry of how the image is displayed.
type ImageView struct {
	// Image holds the decoded pixels at natural (intrinsic) resolution.
	Image image.Image
	// Source identifies where the image came from (URL, path, or data URI).
	Source string
	// Displayed is the on-screen size of the image box. Defaults to the
	// natural size when the image is not scaled.
	Displayed types.Size
	// PixelRatio is the device pixel ratio used to oversample extraction
	// output. Zero is treated as 1.
	PixelRatio float64
}

// NaturalSize returns the intrinsic dimensions of the loaded image.
func (v *ImageView) NaturalSize() types.Size {
	if v == nil || v.Image == nil {
		return types.Size{}
	}
	b := v.Image.Bounds()
	return types.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// FitDisplayed sets the displayed size to the largest box that fits within
// maxW x maxH while preserving the natural aspect ratio. An image already
// smaller than the box is displayed at natural size.
func (v *ImageView) FitDisplayed(maxW, maxH float64) {
	natural := v.NaturalSize()
	if natural.IsZero() || maxW <= 0 || maxH <= 0 {
		return
	}
	if natural.Width <= maxW && natural.Height <= maxH {
		v.Displayed = natural
		return
	}
	ratio := maxW / natural.Width
	if r := maxH / natural.Height; r < ratio {
		ratio = r
	}
	v.Displayed = types.Size{
		Width:  natural.Width * ratio,
		Height: natural.Height * ratio,
	}
}

// Loader loads images from files, URLs, and data URIs.
type Loader struct {
	client *http.Client
	log    *slog.Logger
}

// NewLoader creates a Loader with a default HTTP client and logger.
func NewLoader() *Loader {
	return NewLoaderWith(nil, nil)
}

// NewLoaderWith creates a Loader using the given HTTP client and logger.
// Either may be nil, in which case defaults are used.
func NewLoaderWith(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, log: logger}
}

// Load loads an image from a data URI, http(s) URL, or file path. The
// returned view is displayed at natural size with a pixel ratio of 1;
// callers adjust Displayed and PixelRatio to match their presentation.
func (l *Loader) Load(ctx context.Context, source string) (*ImageView, error) {
	var (
		img image.Image
		err error
	)
	switch {
	case strings.HasPrefix(source, "data:"):
		img, err = l.loadDataURI(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		img, err = l.loadURL(ctx, source)
	default:
		img, err = l.loadFile(source)
	}
	if err != nil {
		return nil, err
	}

	view := &ImageView{Image: img, Source: source, PixelRatio: 1}
	view.Displayed = view.NaturalSize()
	return view, nil
}

// loadDataURI decodes a base64 data URI payload.
func (l *Loader) loadDataURI(uri string) (image.Image, error) {
	comma := strings.Index(uri, ",")
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URI: no payload")
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return decodeBytes(data)
}

// loadURL downloads and decodes an image over http(s).
func (l *Loader) loadURL(ctx context.Context, imageURL string) (image.Image, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "image-cropper/1.0 (+https://github.com/skoret/image-cropper)")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return decodeBytes(data)
}

// loadFile decodes an image from disk, with an explicit WebP fallback for
// payloads the registered decoders reject.
func (l *Loader) loadFile(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return decodeBytes(data)
}

// decodeBytes decodes image bytes, trying the registered decoders first
// and chai2010/webp as a fallback.
func decodeBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}
