package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	imagecropper "github.com/skoret/image-cropper"
	"github.com/skoret/image-cropper/internal/config"
	"github.com/skoret/image-cropper/internal/utils"
	"github.com/skoret/image-cropper/pkg/mimetype"
	"github.com/skoret/image-cropper/pkg/source"
	"github.com/skoret/image-cropper/pkg/types"
)

func main() {
	var in, outDir, cfgPath, unit string
	var x, y, w, h float64
	var aspect, ratio, displayW, displayH float64
	var circle, stdout bool

	flag.StringVar(&in, "in", "", "input image path, URL, or data URI (jpg/png/gif/webp)")
	flag.StringVar(&outDir, "out", "out", "output directory")
	flag.StringVar(&cfgPath, "config", "", "optional JSON config file")

	flag.Float64Var(&x, "x", 0, "crop x")
	flag.Float64Var(&y, "y", 0, "crop y")
	flag.Float64Var(&w, "w", 0, "crop width (0 = derive from aspect or full image)")
	flag.Float64Var(&h, "h", 0, "crop height (0 = derive from aspect or full image)")
	flag.StringVar(&unit, "unit", "px", "crop unit: px|%")

	flag.Float64Var(&aspect, "aspect", 0, "aspect ratio constraint (width/height), 0 = unconstrained")
	flag.BoolVar(&circle, "circle", false, "mask output to a centered circle")
	flag.Float64Var(&ratio, "ratio", 1, "device pixel ratio for output oversampling")
	flag.Float64Var(&displayW, "dw", 0, "displayed box width (0 = natural)")
	flag.Float64Var(&displayH, "dh", 0, "displayed box height (0 = natural)")
	flag.BoolVar(&stdout, "stdout", false, "write the data URI to stdout instead of a file")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL [-x N -y N -w N -h N] [-unit px|%%] [-aspect 1.777] [-circle] [-ratio 2] [-out outdir]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if err := loaded.Validate(); err != nil {
			log.Fatalf("invalid config: %v", err)
		}
		cfg = loaded
	}
	if aspect == 0 {
		aspect = cfg.Crop.Aspect
	}
	if !circle {
		circle = cfg.Crop.Circular
	}
	if displayW == 0 {
		displayW = cfg.Output.MaxDisplayW
	}
	if displayH == 0 {
		displayH = cfg.Output.MaxDisplayH
	}

	ctx := context.Background()

	// Load the source image.
	view, err := source.NewLoader().Load(ctx, in)
	if err != nil {
		log.Fatal(err)
	}
	if displayW > 0 && displayH > 0 {
		view.FitDisplayed(displayW, displayH)
	}
	view.PixelRatio = ratio
	natural := view.NaturalSize()
	log.Printf("loaded %s: natural %.0fx%.0f displayed %.0fx%.0f",
		in, natural.Width, natural.Height, view.Displayed.Width, view.Displayed.Height)

	requested := types.Crop{Unit: types.Unit(unit), X: x, Y: y, Width: w, Height: h}

	var result string
	cropper := imagecropper.New(imagecropper.Options{
		Crop:            &requested,
		Aspect:          aspect,
		Circular:        circle,
		RetainSelection: cfg.Crop.RetainSelection,
		Disabled:        cfg.Crop.Disabled,
		Locked:          cfg.Crop.Locked,
		MinWidth:        cfg.Crop.MinWidth,
		MinHeight:       cfg.Crop.MinHeight,
		MaxWidth:        cfg.Crop.MaxWidth,
		MaxHeight:       cfg.Crop.MaxHeight,
		RuleOfThirds:    cfg.Crop.RuleOfThirds,
	})
	defer cropper.Close()
	cropper.OnCroppedImage(func(dataURI string) {
		result = dataURI
	})

	if err := cropper.SetImage(ctx, view); err != nil {
		log.Fatal(err)
	}
	if result == "" {
		log.Fatal("no cropped image produced")
	}

	crop, _ := cropper.Crop()
	log.Printf("crop: %.1f,%.1f %.1fx%.1f (%s)", crop.X, crop.Y, crop.Width, crop.Height, crop.Unit)

	if stdout {
		fmt.Println(result)
		return
	}

	if err := writeDataURI(result, in, cfg.Output.Dir, outDir); err != nil {
		log.Fatal(err)
	}
}

// writeDataURI decodes the extraction result and writes it next to the
// input's base name under the output directory.
func writeDataURI(dataURI, in, cfgDir, flagDir string) error {
	dir := flagDir
	if dir == "" {
		dir = cfgDir
	}
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	comma := strings.Index(dataURI, ",")
	if comma < 0 {
		return fmt.Errorf("malformed extraction result")
	}
	data, err := base64.StdEncoding.DecodeString(dataURI[comma+1:])
	if err != nil {
		return fmt.Errorf("failed to decode extraction result: %w", err)
	}

	ext := utils.ExtensionForMime(mimetype.FromDataURI(dataURI))
	name := "image"
	if utils.IsImageFile(in) {
		name = in
	}
	outPath := utils.GenerateOutputFilename(name, dir, "_cropped", ext)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	log.Printf("wrote %s", outPath)
	return nil
}
