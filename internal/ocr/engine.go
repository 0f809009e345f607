package ocr

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

// Engine is the entry point extractors and the orchestrator call into; it wraps
// whichever Processor is selected (a bare TesseractBackend or a CascadeBackend)
// with the image-decode/dimension-recording step common to every backend.
type Engine struct {
	backend Processor
}

// NewEngine wraps backend as the active OCR engine.
func NewEngine(backend Processor) *Engine {
	return &Engine{backend: backend}
}

// Process decodes image purely to record its dimensions in the result metadata
// (the backend itself receives the original encoded bytes, since gosseract and
// the tesseract CLI both decode images natively); a decode failure is reported
// as Parsing rather than OCR, since it means the input isn't a valid image at
// all.
func (e *Engine) Process(ctx context.Context, imageBytes []byte, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()

	width, height, err := decodeDimensions(imageBytes)
	if err != nil {
		return Result{}, errorkind.NewParsing("failed to decode image for OCR", err)
	}

	res, err := e.backend.Process(ctx, imageBytes, cfg)
	if err != nil {
		return Result{}, err
	}
	if res.Metadata == nil {
		res.Metadata = map[string]interface{}{}
	}
	res.Metadata["image_width"] = width
	res.Metadata["image_height"] = height
	return res, nil
}

func decodeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
