package orchestrator

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/logging"
	"github.com/adverant/kreuzberg/internal/ocr"
	"github.com/adverant/kreuzberg/internal/registry"
)

// fakeOCRBackend satisfies both registry.OCRBackend (so it can be registered)
// and ocr.Processor (so the orchestrator's forceOCR path can invoke it).
type fakeOCRBackend struct {
	name  string
	text  string
	table *ocr.Table
}

func (f *fakeOCRBackend) Name() string { return f.name }
func (f *fakeOCRBackend) SupportsLanguage(lang string) bool { return true }
func (f *fakeOCRBackend) Initialize(ctx context.Context) error { return nil }
func (f *fakeOCRBackend) Shutdown(ctx context.Context) error { return nil }
func (f *fakeOCRBackend) Process(ctx context.Context, image []byte, cfg ocr.Config) (ocr.Result, error) {
	return ocr.Result{Text: f.text, Table: f.table, Metadata: map[string]interface{}{}}, nil
}

func fakePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestOrchestratorWithOCR(t *testing.T, backend *fakeOCRBackend) *Orchestrator {
	t.Helper()
	regs := registry.New()
	require.NoError(t, regs.OCRBackends.Register(context.Background(), backend))
	log := logging.Default("orchestrator-ocr-test")
	return New(regs, nil, log, 2)
}

func TestOrchestrator_ExtractBytes_ForceOCRBypassesExtractorRegistry(t *testing.T) {
	backend := &fakeOCRBackend{name: "tesseract", text: "scanned text"}
	o := newTestOrchestratorWithOCR(t, backend)

	cfg := extract.Config{ForceOCR: true, OCR: &ocr.Config{Language: "eng"}}
	res, err := o.ExtractBytes(context.Background(), fakePNG(t, 10, 10), "image/png", cfg)
	require.NoError(t, err)
	assert.Equal(t, "scanned text", res.Content)
	assert.Equal(t, "image/png", res.MimeType)

	ocrMeta, ok := res.Metadata["ocr"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "tesseract", ocrMeta["backend"])
}

func TestOrchestrator_ExtractBytes_ForceOCRAttachesReconstructedTable(t *testing.T) {
	backend := &fakeOCRBackend{
		name: "tesseract",
		text: "a b\nc d",
		table: &ocr.Table{Rows: [][]string{
			{"a", "b"},
			{"c", "d"},
		}},
	}
	o := newTestOrchestratorWithOCR(t, backend)

	cfg := extract.Config{ForceOCR: true, OCR: &ocr.Config{Language: "eng"}}
	res, err := o.ExtractBytes(context.Background(), fakePNG(t, 10, 10), "image/png", cfg)
	require.NoError(t, err)
	require.Len(t, res.Tables, 1)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, res.Tables[0].Cells)
	assert.Contains(t, res.Tables[0].Markdown, "| a | b |")
	assert.Contains(t, res.Tables[0].Markdown, "| --- | --- |")
}

func TestOrchestrator_ExtractFile_ForceOCRReadsImageBytes(t *testing.T) {
	backend := &fakeOCRBackend{name: "tesseract", text: "file scanned text"}
	o := newTestOrchestratorWithOCR(t, backend)

	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(path, fakePNG(t, 8, 8), 0o644))

	cfg := extract.Config{ForceOCR: true, OCR: &ocr.Config{Language: "eng"}}
	res, err := o.ExtractFile(context.Background(), path, "", cfg)
	require.NoError(t, err)
	assert.Equal(t, "file scanned text", res.Content)
}

func TestOrchestrator_ExtractBytes_NonImageIgnoresForceOCR(t *testing.T) {
	regs := registry.New()
	require.NoError(t, regs.Extractors.Register(context.Background(), &echoExtractor{}))
	require.NoError(t, regs.OCRBackends.Register(context.Background(), &fakeOCRBackend{name: "tesseract", text: "should not appear"}))
	o := New(regs, nil, logging.Default("orchestrator-ocr-test"), 2)

	cfg := extract.Config{ForceOCR: true}
	res, err := o.ExtractBytes(context.Background(), []byte("plain text body"), "text/plain", cfg)
	require.NoError(t, err)
	assert.Equal(t, "plain text body", res.Content)
}
