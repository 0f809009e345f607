package extractors

import (
	"context"
	"os"
	"strings"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
)

// PlainTextExtractor handles text-based formats directly: no transformation
// beyond decoding the bytes as UTF-8 with invalid sequences replaced.
type PlainTextExtractor struct{}

// NewPlainTextExtractor builds the bundled plain-text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Name() string { return "plaintext" }
func (e *PlainTextExtractor) Priority() int { return 0 }

func (e *PlainTextExtractor) SupportedMimeTypes() []string {
	return []string{
		"text/plain", "text/markdown", "text/csv", "application/json",
		"application/xml", "text/xml", "application/x-yaml", "text/yaml",
		"text/*",
	}
}

func (e *PlainTextExtractor) Initialize(ctx context.Context) error { return nil }
func (e *PlainTextExtractor) Shutdown(ctx context.Context) error { return nil }

func (e *PlainTextExtractor) ExtractFile(ctx context.Context, path, mimeType string, config extract.Config) (*extract.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorkind.NewIO("failed to read file for plaintext extraction", err)
	}
	return e.ExtractBytes(ctx, data, mimeType, config)
}

func (e *PlainTextExtractor) ExtractBytes(ctx context.Context, buf []byte, mimeType string, config extract.Config) (*extract.Output, error) {
	content := strings.ToValidUTF8(string(buf), "�")
	return &extract.Output{
		Content:  content,
		Metadata: map[string]interface{}{"mime_type": mimeType},
	}, nil
}
