// Package geometry computes and maintains crop rectangles against the
// displayed image box: deriving aspect-constrained crops, centering and
// clamping them, and rescaling them proportionally when the displayed
// image changes size.
package geometry

import (
	"math"

	"github.com/skoret/image-cropper/pkg/types"
)

// Initialize produces a complete, in-bounds crop rectangle from a possibly
// under-specified request. When aspect is positive, width and height are
// derived so the crop matches that ratio: the largest crop honoring the
// ratio that fits within the displayed image, anchored by whichever of the
// requested dimensions is provided. With neither an aspect nor requested
// dimensions the whole displayed image is selected. The result is always
// centered within the displayed bounds and returned in the requested
// crop's unit.
func Initialize(requested types.Crop, aspect float64, displayed types.Size) types.Crop {
	if displayed.IsZero() {
		return requested
	}

	crop := requested.ToPixels(displayed)
	switch {
	case aspect > 0:
		crop = aspectFit(crop, aspect, displayed)
	case crop.Empty():
		// Nothing requested at all: select the whole displayed image.
		crop.Width = displayed.Width
		crop.Height = displayed.Height
	}
	crop = Clamp(crop, displayed)
	crop = Center(crop, displayed)

	if requested.Unit == types.UnitPercent {
		return crop.ToPercent(displayed)
	}
	return crop
}

// aspectFit derives width and height matching the given ratio. A provided
// width anchors the derivation; otherwise a provided height does; with
// neither, the largest rectangle of that ratio fitting the image is used.
func aspectFit(crop types.Crop, aspect float64, displayed types.Size) types.Crop {
	switch {
	case crop.Width > 0:
		crop.Height = crop.Width / aspect
	case crop.Height > 0:
		crop.Width = crop.Height * aspect
	default:
		crop.Width = math.Min(displayed.Width, displayed.Height*aspect)
		crop.Height = crop.Width / aspect
	}

	// Shrink to fit while keeping the ratio.
	if crop.Width > displayed.Width {
		crop.Width = displayed.Width
		crop.Height = crop.Width / aspect
	}
	if crop.Height > displayed.Height {
		crop.Height = displayed.Height
		crop.Width = crop.Height * aspect
	}
	return crop
}

// Center repositions the crop so it sits centered within the displayed
// image bounds. Size is left untouched.
func Center(crop types.Crop, displayed types.Size) types.Crop {
	crop.X = (displayed.Width - crop.Width) / 2
	crop.Y = (displayed.Height - crop.Height) / 2
	return crop
}

// Clamp forces the crop into the displayed image bounds: dimensions are
// capped at the image size and the origin is moved so x+width and y+height
// do not exceed the bounds.
func Clamp(crop types.Crop, displayed types.Size) types.Crop {
	crop.Width = math.Min(crop.Width, displayed.Width)
	crop.Height = math.Min(crop.Height, displayed.Height)
	crop.X = math.Max(0, math.Min(crop.X, displayed.Width-crop.Width))
	crop.Y = math.Max(0, math.Min(crop.Y, displayed.Height-crop.Height))
	return crop
}
