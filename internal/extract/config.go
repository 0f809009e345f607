package extract

import (
	"github.com/adverant/kreuzberg/internal/ocr"
	"github.com/adverant/kreuzberg/internal/postprocess"
)

// PDFOptions carries format-specific tuning that only a PDF extractor
// interprets; the orchestrator and cache-key construction pass it through
// opaquely.
type PDFOptions struct {
	ExtractImages bool
	PasswordHint  string
}

// Config is the immutable snapshot of ExtractionConfig threaded through one
// extraction call, shared between the orchestrator, every registered
// Extractor, and the post-processing pipeline. It lives in this package
// (rather than the root kreuzberg package) so internal/registry and
// internal/extractors can depend on it without an import cycle back to the
// root package that owns the public ExtractionConfig/ExtractionResult types.
type Config struct {
	UseCache                bool
	ForceOCR                bool
	EnableQualityProcessing bool

	OCR               *ocr.Config
	Chunking          *postprocess.ChunkingConfig
	LanguageDetection *postprocess.LanguageDetectionConfig
	PDFOptions        *PDFOptions
	TokenReduction    *postprocess.TokenReductionConfig
}
