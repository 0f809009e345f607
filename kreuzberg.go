// Package kreuzberg is a document intelligence engine: given a file path or a
// byte buffer of arbitrary supported format, it produces a normalized
// textual/markdown representation plus structured metadata (tables,
// languages, chunks, format-specific headers).
//
// The package wires together four internal subsystems — a plugin registry
// (internal/registry), a content-addressed cache (internal/cache), an OCR
// pipeline (internal/ocr), and a post-processing chain (internal/postprocess)
// — behind the single Engine type. Reference extractors for plain text,
// HTML and ZIP archives (internal/extractors) ship as concrete extractor
// contract implementations; PDF, Office and email parsing are left to
// extractors a caller registers itself via RegisterExtractor.
package kreuzberg

import (
	"github.com/adverant/kreuzberg/internal/cache"
	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/ocr"
	"github.com/adverant/kreuzberg/internal/orchestrator"
	"github.com/adverant/kreuzberg/internal/postprocess"
)

// CacheStats reports the current footprint of a cache directory (extract or
// OCR): entry count, size, free space and entry age range.
type CacheStats = cache.Stats

// ExtractionConfig is the immutable per-call configuration snapshot:
// cache/OCR toggles plus optional chunking, language-detection, PDF and
// token-reduction sub-configs.
type ExtractionConfig = extract.Config

// OCRConfig selects an OCR backend and its tuning parameters.
type OCRConfig = ocr.Config

// ChunkingConfig bounds chunk splits into windows of at most MaxChars
// characters with MaxOverlap characters shared between consecutive windows.
type ChunkingConfig = postprocess.ChunkingConfig

// LanguageDetectionConfig configures the statistical language classifier
// stage.
type LanguageDetectionConfig = postprocess.LanguageDetectionConfig

// TokenReductionConfig configures the token-reduction stage.
type TokenReductionConfig = postprocess.TokenReductionConfig

// ReductionLevel selects how aggressively the token-reduction stage rewrites
// text.
type ReductionLevel = postprocess.ReductionLevel

const (
	ReductionOff        = postprocess.ReductionOff
	ReductionLight      = postprocess.ReductionLight
	ReductionModerate   = postprocess.ReductionModerate
	ReductionAggressive = postprocess.ReductionAggressive
	ReductionMaximum    = postprocess.ReductionMaximum
)

// PDFOptions carries format-specific tuning a PDF extractor would interpret;
// the core passes it through opaquely since this module ships no PDF
// extractor of its own.
type PDFOptions = extract.PDFOptions

// Table is one extracted table: a rectangular cell grid plus its rendered
// markdown form.
type Table = extract.Table

// Chunk is one overlapping content window produced by the chunking stage.
type Chunk = orchestrator.Chunk

// OCRMetadata is the well-known metadata.ocr shape recorded whenever OCR ran
// on at least one page of the input.
type OCRMetadata struct {
	Backend    string  `json:"backend"`
	Confidence float64 `json:"confidence"`
	PageCount  int     `json:"page_count"`
}

// ArchiveMetadata is the well-known metadata.archive shape the archive
// extractor populates.
type ArchiveMetadata struct {
	Format    string   `json:"format"`
	FileCount int      `json:"file_count"`
	FileList  []string `json:"file_list"`
}

// ErrorMetadata is the well-known metadata.error shape a batch item carries
// when its extraction was demoted to a per-item error result rather than
// aborting the whole batch.
type ErrorMetadata struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Metadata is ExtractionResult's heterogeneous field set: a closed set of
// well-known names plus a free-form Additional map for everything else an
// extractor or plugin reports.
type Metadata struct {
	Title        string                 `json:"title,omitempty"`
	Authors      string                 `json:"authors,omitempty"`
	CreatedAt    string                 `json:"created_at,omitempty"`
	PageCount    int                    `json:"page_count,omitempty"`
	OCR          *OCRMetadata           `json:"ocr,omitempty"`
	Archive      *ArchiveMetadata       `json:"archive,omitempty"`
	QualityScore *float64               `json:"quality_score,omitempty"`
	ChunkCount   *int                   `json:"chunk_count,omitempty"`
	Error        *ErrorMetadata         `json:"error,omitempty"`
	Additional   map[string]interface{} `json:"additional,omitempty"`
}

// ExtractionResult is the central output value: one per extraction call,
// produced by exactly one extractor and mutated only by the post-processing
// chain.
type ExtractionResult struct {
	Content           string   `json:"content"`
	MimeType          string   `json:"mime_type"`
	Metadata          Metadata `json:"metadata"`
	Tables            []Table  `json:"tables"`
	DetectedLanguages []string `json:"detected_languages,omitempty"` // nil means "not requested"
	Chunks            []Chunk  `json:"chunks,omitempty"`             // nil means "chunking not requested"
}

// knownMetadataKeys is the closed set of field names promoted out of the
// internal map representation into Metadata's named fields; everything else
// lands in Metadata.Additional.
var knownMetadataKeys = map[string]struct{}{
	"title": {}, "authors": {}, "created_at": {}, "page_count": {},
	"ocr": {}, "archive": {}, "quality_score": {}, "chunk_count": {}, "error": {},
}

func fromInternalResult(r *orchestrator.Result) *ExtractionResult {
	return &ExtractionResult{
		Content:           r.Content,
		MimeType:          r.MimeType,
		Metadata:          convertMetadata(r.Metadata),
		Tables:            r.Tables,
		DetectedLanguages: r.DetectedLanguages,
		Chunks:            r.Chunks,
	}
}

func convertMetadata(m map[string]interface{}) Metadata {
	md := Metadata{Additional: map[string]interface{}{}}
	for k, v := range m {
		if _, known := knownMetadataKeys[k]; !known {
			md.Additional[k] = v
			continue
		}
		switch k {
		case "title":
			md.Title, _ = v.(string)
		case "authors":
			md.Authors, _ = v.(string)
		case "created_at":
			md.CreatedAt, _ = v.(string)
		case "page_count":
			md.PageCount = toInt(v)
		case "ocr":
			md.OCR = toOCRMetadata(v)
		case "archive":
			md.Archive = toArchiveMetadata(v)
		case "quality_score":
			if f, ok := toFloat(v); ok {
				md.QualityScore = &f
			}
		case "chunk_count":
			n := toInt(v)
			md.ChunkCount = &n
		case "error":
			md.Error = toErrorMetadata(v)
		}
	}
	return md
}

func toOCRMetadata(v interface{}) *OCRMetadata {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := &OCRMetadata{}
	out.Backend, _ = m["backend"].(string)
	out.Confidence, _ = toFloat(m["confidence"])
	out.PageCount = toInt(m["page_count"])
	return out
}

func toArchiveMetadata(v interface{}) *ArchiveMetadata {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := &ArchiveMetadata{}
	out.Format, _ = m["format"].(string)
	out.FileCount = toInt(m["file_count"])
	if list, ok := m["file_list"].([]string); ok {
		out.FileList = list
	} else if list, ok := m["file_list"].([]interface{}); ok {
		for _, e := range list {
			if s, ok := e.(string); ok {
				out.FileList = append(out.FileList, s)
			}
		}
	}
	return out
}

func toErrorMetadata(v interface{}) *ErrorMetadata {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := &ErrorMetadata{}
	out.Type, _ = m["type"].(string)
	out.Message, _ = m["message"].(string)
	return out
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case uint64:
		return int(n)
	default:
		return 0
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
