package types

// Unit identifies the coordinate space of a Crop.
type Unit string

const (
	// UnitPixel means crop coordinates are absolute pixels of the displayed image.
	UnitPixel Unit = "px"
	// UnitPercent means crop coordinates are percentages of the displayed image box.
	UnitPercent Unit = "%"
)

// Crop describes the selected region relative to the displayed image.
// Coordinates are either absolute pixels of the displayed (not natural)
// image or percentages of the displayed image box, depending on Unit.
type Crop struct {
	Unit   Unit    `json:"unit"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the crop selects no area.
func (c Crop) Empty() bool {
	return c.Width <= 0 || c.Height <= 0
}

// ToPixels converts the crop to absolute pixel coordinates against the
// given displayed size. Pixel crops are returned unchanged.
func (c Crop) ToPixels(displayed Size) Crop {
	if c.Unit != UnitPercent {
		c.Unit = UnitPixel
		return c
	}
	return Crop{
		Unit:   UnitPixel,
		X:      c.X / 100 * displayed.Width,
		Y:      c.Y / 100 * displayed.Height,
		Width:  c.Width / 100 * displayed.Width,
		Height: c.Height / 100 * displayed.Height,
	}
}

// ToPercent converts the crop to percentages of the given displayed size.
// Percent crops are returned unchanged.
func (c Crop) ToPercent(displayed Size) Crop {
	if c.Unit == UnitPercent {
		return c
	}
	if displayed.IsZero() {
		return Crop{Unit: UnitPercent}
	}
	return Crop{
		Unit:   UnitPercent,
		X:      c.X / displayed.Width * 100,
		Y:      c.Y / displayed.Height * 100,
		Width:  c.Width / displayed.Width * 100,
		Height: c.Height / displayed.Height * 100,
	}
}

// Size holds the displayed (on-screen) dimensions of an image element.
// It may differ from the natural size of the underlying asset.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is missing.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// AspectRatio returns width/height, or 0 for a degenerate size.
func (s Size) AspectRatio() float64 {
	if s.IsZero() {
		return 0
	}
	return s.Width / s.Height
}
