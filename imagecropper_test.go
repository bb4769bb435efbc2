package imagecropper

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/skoret/image-cropper/pkg/source"
	"github.com/skoret/image-cropper/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func testView(naturalW, naturalH int, displayed types.Size) *source.ImageView {
	return &source.ImageView{
		Image:      createTestImage(naturalW, naturalH),
		Source:     "",
		Displayed:  displayed,
		PixelRatio: 1,
	}
}

func TestNew(t *testing.T) {
	cropper := New(Options{})
	if cropper == nil {
		t.Fatal("New() returned nil")
	}
	if _, ok := cropper.Crop(); ok {
		t.Error("expected no crop before an image is set")
	}
}

func TestSetImageInitializesAndEmits(t *testing.T) {
	cropper := New(Options{Aspect: 1})
	defer cropper.Close()

	var emitted []string
	cropper.OnCroppedImage(func(dataURI string) {
		emitted = append(emitted, dataURI)
	})

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	crop, ok := cropper.Crop()
	if !ok {
		t.Fatal("expected a crop after image load")
	}
	// Largest centered square for a square image is the full box.
	if crop.X != 0 || crop.Y != 0 || crop.Width != 100 || crop.Height != 100 {
		t.Errorf("unexpected initial crop: %+v", crop)
	}

	if len(emitted) != 1 {
		t.Fatalf("expected 1 load-time emission, got %d", len(emitted))
	}
	if !strings.HasPrefix(emitted[0], "data:image/png;base64,") {
		t.Errorf("unexpected payload prefix: %q", emitted[0][:30])
	}
}

func TestSetImageUsesCropHint(t *testing.T) {
	hint := types.Crop{Unit: types.UnitPixel, Width: 40, Height: 20}
	cropper := New(Options{Crop: &hint})
	defer cropper.Close()

	view := testView(200, 100, types.Size{Width: 200, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	crop, _ := cropper.Crop()
	if crop.Width != 40 || crop.Height != 20 {
		t.Errorf("hint dimensions lost: %+v", crop)
	}
	if crop.X != 80 || crop.Y != 40 {
		t.Errorf("expected centered crop, got %.1f,%.1f", crop.X, crop.Y)
	}
}

func TestSetImageNilView(t *testing.T) {
	cropper := New(Options{})
	if err := cropper.SetImage(context.Background(), nil); err == nil {
		t.Error("expected error for nil view")
	}
}

func TestHandleResizeRescalesCrop(t *testing.T) {
	cropper := New(Options{})
	defer cropper.Close()

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	cropper.HandleCropChange(types.Crop{Unit: types.UnitPixel, X: 10, Y: 10, Width: 50, Height: 50})

	cropper.HandleResize(types.Size{Width: 200, Height: 150})
	crop, _ := cropper.Crop()
	if crop.X != 20 || crop.Y != 15 || crop.Width != 100 || crop.Height != 75 {
		t.Errorf("unexpected rescaled crop: %+v", crop)
	}

	// A second resize composes against the new baseline.
	cropper.HandleResize(types.Size{Width: 100, Height: 75})
	crop, _ = cropper.Crop()
	if crop.X != 10 || crop.Y != 7.5 || crop.Width != 50 || crop.Height != 37.5 {
		t.Errorf("resizes did not compose multiplicatively: %+v", crop)
	}
}

func TestHandleResizeIgnoresSingleAxisChange(t *testing.T) {
	cropper := New(Options{})
	defer cropper.Close()

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}
	before, _ := cropper.Crop()

	cropper.HandleResize(types.Size{Width: 100, Height: 200})
	after, _ := cropper.Crop()
	if before != after {
		t.Errorf("crop changed on single-axis resize: %+v -> %+v", before, after)
	}
}

func TestHandleCropCompleteEmits(t *testing.T) {
	cropper := New(Options{})
	defer cropper.Close()

	var emissions int
	cropper.OnCroppedImage(func(string) { emissions++ })

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}
	if emissions != 1 {
		t.Fatalf("expected load-time emission, got %d", emissions)
	}

	crop := types.Crop{Unit: types.UnitPixel, X: 10, Y: 10, Width: 30, Height: 30}
	if err := cropper.HandleCropComplete(context.Background(), crop); err != nil {
		t.Fatalf("HandleCropComplete failed: %v", err)
	}
	if emissions != 2 {
		t.Errorf("expected 2 emissions, got %d", emissions)
	}

	got, _ := cropper.Crop()
	if got != crop {
		t.Errorf("completed crop not recorded: %+v", got)
	}
}

func TestHandleCropChangeDoesNotEmit(t *testing.T) {
	cropper := New(Options{})
	defer cropper.Close()

	var emissions int
	cropper.OnCroppedImage(func(string) { emissions++ })

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	cropper.HandleCropChange(types.Crop{Unit: types.UnitPixel, X: 1, Y: 1, Width: 10, Height: 10})
	if emissions != 1 {
		t.Errorf("continuous change must not extract; emissions=%d", emissions)
	}
}

func TestDisabledIgnoresInteraction(t *testing.T) {
	cropper := New(Options{Disabled: true})
	defer cropper.Close()

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}
	before, _ := cropper.Crop()

	cropper.HandleCropChange(types.Crop{Unit: types.UnitPixel, X: 1, Y: 1, Width: 10, Height: 10})
	after, _ := cropper.Crop()
	if before != after {
		t.Errorf("disabled cropper accepted an edit: %+v", after)
	}

	var emissions int
	cropper.OnCroppedImage(func(string) { emissions++ })
	if err := cropper.HandleCropComplete(context.Background(), types.Crop{Unit: types.UnitPixel, Width: 10, Height: 10}); err != nil {
		t.Fatalf("HandleCropComplete failed: %v", err)
	}
	if emissions != 0 {
		t.Errorf("disabled cropper extracted; emissions=%d", emissions)
	}
}

func TestRetainSelectionAcrossImages(t *testing.T) {
	cropper := New(Options{RetainSelection: true})
	defer cropper.Close()

	first := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), first); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}
	cropper.HandleCropChange(types.Crop{Unit: types.UnitPixel, X: 5, Y: 5, Width: 30, Height: 20})

	second := testView(400, 400, types.Size{Width: 200, Height: 200})
	if err := cropper.SetImage(context.Background(), second); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	// Size is retained; the position is re-centered per load.
	crop, _ := cropper.Crop()
	if crop.Width != 30 || crop.Height != 20 {
		t.Errorf("selection size not retained: %+v", crop)
	}
	if crop.X != 85 || crop.Y != 90 {
		t.Errorf("expected re-centered crop, got %.1f,%.1f", crop.X, crop.Y)
	}
}

func TestCloseSuppressesDispatch(t *testing.T) {
	cropper := New(Options{})

	var emissions int
	cropper.OnCroppedImage(func(string) { emissions++ })

	view := testView(200, 200, types.Size{Width: 100, Height: 100})
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}

	cropper.Close()
	if err := cropper.HandleCropComplete(context.Background(), types.Crop{Unit: types.UnitPixel, Width: 10, Height: 10}); err != nil {
		t.Fatalf("HandleCropComplete after Close failed: %v", err)
	}
	if emissions != 1 {
		t.Errorf("closed cropper dispatched; emissions=%d", emissions)
	}
}

func TestCircularOption(t *testing.T) {
	cropper := New(Options{Circular: true})
	defer cropper.Close()

	var payload string
	cropper.OnCroppedImage(func(dataURI string) { payload = dataURI })

	view := testView(100, 100, types.Size{Width: 100, Height: 100})
	view.PixelRatio = 2
	if err := cropper.SetImage(context.Background(), view); err != nil {
		t.Fatalf("SetImage failed: %v", err)
	}
	if payload == "" {
		t.Fatal("no payload emitted")
	}
	if !strings.HasPrefix(payload, "data:image/png;base64,") {
		t.Errorf("unexpected payload prefix: %q", payload[:30])
	}
}
