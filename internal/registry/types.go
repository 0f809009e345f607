// Package registry implements the plugin registries that sit between the
// orchestrator and the extractor/OCR/post-processor/validator implementations:
// extractors, OCR backends, post-processors and validators, each maintained as a
// priority-ordered, concurrency-safe lookup table.
package registry

import (
	"context"

	"github.com/adverant/kreuzberg/internal/extract"
)

// ProcessingStage identifies where in the post-processing pipeline a PostProcessor
// runs.
type ProcessingStage int

const (
	StageEarly ProcessingStage = iota
	StageMiddle
	StageLate
)

func (s ProcessingStage) String() string {
	switch s {
	case StageEarly:
		return "early"
	case StageMiddle:
		return "middle"
	case StageLate:
		return "late"
	default:
		return "unknown"
	}
}

// Extractor is implemented by every document-format extractor. Initialize is
// called exactly once before the extractor becomes visible to lookups; Shutdown
// exactly once when it is removed.
type Extractor interface {
	Name() string
	Priority() int
	SupportedMimeTypes() []string
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	ExtractFile(ctx context.Context, path, mimeType string, config extract.Config) (*extract.Output, error)
	ExtractBytes(ctx context.Context, buf []byte, mimeType string, config extract.Config) (*extract.Output, error)
}

// OCRBackend is implemented by every OCR engine binding (Tesseract, and any
// cascade member composed on top of it).
type OCRBackend interface {
	Name() string
	SupportsLanguage(lang string) bool
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// PostProcessor is implemented by each plugin-contributed hook in the
// post-processing pipeline: StageEarly hooks run before every built-in
// stage, StageMiddle hooks between chunking and language detection, and
// StageLate hooks after token reduction, immediately before the validators.
// The built-in stages (chunking, language detection, quality scoring, token
// reduction) are not themselves PostProcessor plugins — they are fixed
// pipeline steps the orchestrator runs around whatever plugins are
// registered here.
type PostProcessor interface {
	Name() string
	ProcessingStage() ProcessingStage
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Process(ctx context.Context, content string, metadata map[string]interface{}) (string, map[string]interface{}, error)
}

// Validator is implemented by late-stage result validators.
type Validator interface {
	Name() string
	Priority() int
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Validate(ctx context.Context, result interface{}) error
}
