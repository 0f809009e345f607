package orchestrator

import (
	"context"
	"os"
	"strings"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/ocr"
)

// maybeForceOCRFile is forceOCR's file-path counterpart: it only reads path
// into memory when mimeType and cfg actually call for a forced OCR pass, so
// the common non-image path never pays for the read.
func (o *Orchestrator) maybeForceOCRFile(ctx context.Context, path, mimeType string, cfg extract.Config) (*extract.Output, bool, error) {
	if !cfg.ForceOCR || !strings.HasPrefix(mimeType, "image/") {
		return nil, false, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, true, errorkind.NewIO("failed to read file for forced OCR: "+path, err)
	}
	return o.forceOCR(ctx, buf, mimeType, cfg)
}

// forceOCR handles ForceOCR for image inputs: it runs the OCR engine on the
// raw bytes instead of dispatching to the extractor registry, since OCR *is*
// the extraction for a bare image. The resolved backend comes from
// cfg.OCR.Backend (default "tesseract"), looked up in the same OCR backend
// registry extractors use.
func (o *Orchestrator) forceOCR(ctx context.Context, buf []byte, mimeType string, cfg extract.Config) (*extract.Output, bool, error) {
	if !cfg.ForceOCR || !strings.HasPrefix(mimeType, "image/") {
		return nil, false, nil
	}

	ocrCfg := ocr.Config{}
	if cfg.OCR != nil {
		ocrCfg = *cfg.OCR
	}
	backendName := ocrCfg.Backend
	if backendName == "" {
		backendName = "tesseract"
	}

	backend, err := o.Registries.OCRBackends.Get(backendName)
	if err != nil {
		return nil, true, err
	}
	processor, ok := backend.(ocr.Processor)
	if !ok {
		return nil, true, errorkind.NewPlugin(backendName, "registered OCR backend does not implement Process", nil)
	}

	result, err := ocr.NewEngine(processor).Process(ctx, buf, ocrCfg)
	if err != nil {
		return nil, true, err
	}

	out := &extract.Output{
		Content: result.Text,
		Metadata: map[string]interface{}{
			"ocr": map[string]interface{}{
				"backend":    processor.Name(),
				"page_count": 1,
			},
		},
	}
	for k, v := range result.Metadata {
		out.Metadata[k] = v
	}
	if result.Table != nil {
		out.Tables = []extract.Table{ocrTableToExtractTable(*result.Table)}
	}
	return out, true, nil
}

// ocrTableToExtractTable converts a reconstructed OCR table into the
// extractor-contract shape, rendering a GitHub-flavored-markdown pipe table
// from the cell grid (the first row is treated as the header).
func ocrTableToExtractTable(t ocr.Table) extract.Table {
	return extract.Table{
		Cells:      t.Rows,
		Markdown:   renderMarkdownTable(t.Rows),
		PageNumber: 0,
	}
}

func renderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(c, "|", "\\|"))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(rows[0])
	b.WriteString("|")
	for range rows[0] {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows[1:] {
		writeRow(r)
	}
	return b.String()
}
