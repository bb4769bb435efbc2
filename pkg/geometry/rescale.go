package geometry

import "github.com/skoret/image-cropper/pkg/types"

// Rescaler keeps a crop proportionally correct as the displayed image is
// resized. It records the last observed displayed size and rescales the
// crop relative to that baseline, so repeated resizes compose
// multiplicatively rather than from the load-time size.
//
// The rescaled crop is deliberately not clamped back into bounds; over
// many resizes floating-point drift could move it slightly outside the
// image box.
type Rescaler struct {
	baseline types.Size
}

// SetBaseline records the displayed size subsequent resizes are measured
// against. Called once per image load.
func (r *Rescaler) SetBaseline(s types.Size) {
	r.baseline = s
}

// Baseline returns the last recorded displayed size.
func (r *Rescaler) Baseline() types.Size {
	return r.baseline
}

// Observe handles a size-changed signal. When both dimensions differ from
// the recorded baseline and there is a crop to scale, it returns the crop
// scaled by newSize/baseline and replaces the baseline with next. The
// second return reports whether a rescale happened.
func (r *Rescaler) Observe(next types.Size, crop types.Crop) (types.Crop, bool) {
	if r.baseline.IsZero() || next.IsZero() || crop.Empty() {
		return crop, false
	}
	if next.Width == r.baseline.Width || next.Height == r.baseline.Height {
		return crop, false
	}

	scaleX := next.Width / r.baseline.Width
	scaleY := next.Height / r.baseline.Height
	r.baseline = next

	return types.Crop{
		Unit:   crop.Unit,
		X:      crop.X * scaleX,
		Y:      crop.Y * scaleY,
		Width:  crop.Width * scaleX,
		Height: crop.Height * scaleY,
	}, true
}
