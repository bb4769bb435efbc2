package geometry

import (
	"math"
	"testing"

	"github.com/skoret/image-cropper/pkg/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestInitializeAspectOnly(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}

	// No dimensions requested: largest square fitting the image, centered.
	crop := Initialize(types.Crop{}, 1.0, displayed)

	if crop.Width != 300 || crop.Height != 300 {
		t.Errorf("expected 300x300, got %.1fx%.1f", crop.Width, crop.Height)
	}
	if crop.X != 50 || crop.Y != 0 {
		t.Errorf("expected centered at 50,0, got %.1f,%.1f", crop.X, crop.Y)
	}
}

func TestInitializeAspectAnchoredByWidth(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}
	requested := types.Crop{Unit: types.UnitPixel, Width: 100}

	crop := Initialize(requested, 16.0/9.0, displayed)

	if crop.Width != 100 {
		t.Errorf("expected width 100, got %.2f", crop.Width)
	}
	if !almostEqual(crop.Height, 56.25) {
		t.Errorf("expected height 56.25, got %.2f", crop.Height)
	}
	if crop.X != 150 || !almostEqual(crop.Y, 121.875) {
		t.Errorf("expected centered at 150,121.875, got %.3f,%.3f", crop.X, crop.Y)
	}
}

func TestInitializeAspectAnchoredByHeight(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}
	requested := types.Crop{Unit: types.UnitPixel, Height: 90}

	crop := Initialize(requested, 2.0, displayed)

	if crop.Width != 180 || crop.Height != 90 {
		t.Errorf("expected 180x90, got %.1fx%.1f", crop.Width, crop.Height)
	}
}

func TestInitializeShrinksOversizedAspectCrop(t *testing.T) {
	displayed := types.Size{Width: 200, Height: 100}

	// Requested width exceeds the image; the crop must shrink keeping
	// the ratio.
	requested := types.Crop{Unit: types.UnitPixel, Width: 500}
	crop := Initialize(requested, 1.0, displayed)

	if crop.Width != 100 || crop.Height != 100 {
		t.Errorf("expected 100x100, got %.1fx%.1f", crop.Width, crop.Height)
	}
	if crop.X != 50 || crop.Y != 0 {
		t.Errorf("expected centered at 50,0, got %.1f,%.1f", crop.X, crop.Y)
	}
}

func TestInitializePreservesPercentUnit(t *testing.T) {
	displayed := types.Size{Width: 200, Height: 100}
	requested := types.Crop{Unit: types.UnitPercent, Width: 50}

	crop := Initialize(requested, 1.0, displayed)

	if crop.Unit != types.UnitPercent {
		t.Fatalf("expected percent unit, got %q", crop.Unit)
	}
	// 50% of 200 = 100px wide, square, centered: x=50px=25%, full height.
	if crop.X != 25 || crop.Y != 0 || crop.Width != 50 || crop.Height != 100 {
		t.Errorf("unexpected percent crop: %+v", crop)
	}
}

func TestInitializeWithoutAspect(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}
	requested := types.Crop{Unit: types.UnitPixel, X: 999, Y: 999, Width: 100, Height: 50}

	crop := Initialize(requested, 0, displayed)

	// Size kept, position recentered regardless of the requested origin.
	if crop.Width != 100 || crop.Height != 50 {
		t.Errorf("expected 100x50, got %.1fx%.1f", crop.Width, crop.Height)
	}
	if crop.X != 150 || crop.Y != 125 {
		t.Errorf("expected centered at 150,125, got %.1f,%.1f", crop.X, crop.Y)
	}
}

func TestInitializeDefaultsToFullImage(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}

	crop := Initialize(types.Crop{}, 0, displayed)

	if crop.X != 0 || crop.Y != 0 || crop.Width != 400 || crop.Height != 300 {
		t.Errorf("expected full-image crop, got %+v", crop)
	}
}

func TestInitializeDegenerateDisplayedSize(t *testing.T) {
	requested := types.Crop{Unit: types.UnitPixel, Width: 10, Height: 10}
	crop := Initialize(requested, 1.0, types.Size{})
	if crop != requested {
		t.Errorf("expected requested crop back, got %+v", crop)
	}
}

func TestClamp(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}

	crop := Clamp(types.Crop{Unit: types.UnitPixel, X: 350, Y: 250, Width: 100, Height: 100}, displayed)
	if crop.X != 300 || crop.Y != 200 {
		t.Errorf("expected origin moved to 300,200, got %.1f,%.1f", crop.X, crop.Y)
	}

	crop = Clamp(types.Crop{Unit: types.UnitPixel, Width: 500, Height: 400}, displayed)
	if crop.Width != 400 || crop.Height != 300 {
		t.Errorf("expected size capped at 400x300, got %.1fx%.1f", crop.Width, crop.Height)
	}
}

func TestCenter(t *testing.T) {
	displayed := types.Size{Width: 400, Height: 300}
	crop := Center(types.Crop{Unit: types.UnitPixel, X: 5, Y: 5, Width: 200, Height: 100}, displayed)
	if crop.X != 100 || crop.Y != 100 {
		t.Errorf("expected 100,100, got %.1f,%.1f", crop.X, crop.Y)
	}
}
