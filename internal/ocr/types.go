// Package ocr implements the OCR engine: Tesseract-backed text/hOCR/TSV
// extraction, TSV-to-table reconstruction, and a confidence-escalation cascade
// over multiple backends.
package ocr

import (
	"time"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

// OutputForm selects what the backend produces.
type OutputForm string

const (
	OutputText     OutputForm = "text"
	OutputMarkdown OutputForm = "markdown"
	OutputHOCR     OutputForm = "hocr"
	OutputTSV      OutputForm = "tsv"
)

// Word is one TSV row: a single recognized token in pixel coordinates of the
// decoded image, used both directly (output form tsv) and as the input to table
// reconstruction.
type Word struct {
	Text       string
	Left       int
	Top        int
	Width      int
	Height     int
	Confidence float64
	LineNum    int
	WordNum    int
	BlockNum   int
	ParNum     int
}

// Table is a reconstructed rectangular grid of cell text, shorter rows padded
// with empty strings.
type Table struct {
	Rows [][]string
}

// Config selects a backend and its tuning parameters. Fields beyond Language,
// PSM, OEM and Whitelist are Tesseract-specific; other backends ignore them.
type Config struct {
	Backend    string // registry name, "" selects the default (tesseract)
	Language   string // BCP-47-like, e.g. "eng", "deu+fra"
	PSM        int    // page segmentation mode, 0..=10
	OEM        int    // OCR engine mode
	OutputForm OutputForm
	Whitelist  string // character whitelist, empty disables the restriction

	EnableTableDetection   bool
	TableMinConfidence     float64
	TableColumnThreshold   int     // pixels
	TableRowThresholdRatio float64 // fraction of row height

	UseCache bool
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.OutputForm == "" {
		c.OutputForm = OutputText
	}
	if c.TableColumnThreshold <= 0 {
		c.TableColumnThreshold = 20
	}
	if c.TableRowThresholdRatio <= 0 {
		c.TableRowThresholdRatio = 0.5
	}
	return c
}

// validate enforces the flow's step 1: language non-empty, psm in range,
// thresholds finite, already guaranteed by Go's float64 domain except for NaN.
func (c Config) validate() error {
	if c.Language == "" {
		return errorkind.NewValidation("ocr config: language must not be empty", nil)
	}
	if c.PSM < 0 || c.PSM > 10 {
		return errorkind.NewValidation("ocr config: psm must be within 0..=10", nil)
	}
	if c.TableRowThresholdRatio != c.TableRowThresholdRatio { // NaN check
		return errorkind.NewValidation("ocr config: table_row_threshold_ratio must be finite", nil)
	}
	return nil
}

// Result is the OCR engine's output: text (or hOCR-derived markdown), an
// optional reconstructed table, and metadata describing how it was produced.
type Result struct {
	Text       string
	Table      *Table
	Language   string
	PSM        int
	OutputForm OutputForm
	Duration   time.Duration
	Metadata   map[string]interface{}
}
