package kreuzberg

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/config"
	"github.com/adverant/kreuzberg/internal/extract"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	procCfg := config.LoadProcessConfig()
	procCfg.CacheDir = t.TempDir()
	engine, err := New(append([]Option{WithProcessConfig(procCfg)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Shutdown(context.Background()) })
	return engine
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestEngine_ExtractBytes_ZIPMetadata(t *testing.T) {
	engine := newTestEngine(t)
	zipBytes := buildZip(t, map[string]string{"test.txt": "Hello from ZIP!"})

	result, err := engine.ExtractBytes(context.Background(), zipBytes, "application/zip", ExtractionConfig{})
	require.NoError(t, err)

	assert.Equal(t, "application/zip", result.MimeType)
	require.NotNil(t, result.Metadata.Archive)
	assert.Equal(t, "ZIP", result.Metadata.Archive.Format)
	assert.Equal(t, 1, result.Metadata.Archive.FileCount)
	assert.Equal(t, []string{"test.txt"}, result.Metadata.Archive.FileList)
	assert.Contains(t, result.Content, "Hello from ZIP!")
}

func TestEngine_ExtractBytes_ChunkingBudget(t *testing.T) {
	engine := newTestEngine(t)
	content := strings.Repeat("This is a long text that should be split into multiple chunks. ", 10)

	result, err := engine.ExtractBytes(context.Background(), []byte(content), "text/plain", ExtractionConfig{
		Chunking: &ChunkingConfig{MaxChars: 50, MaxOverlap: 10},
	})
	require.NoError(t, err)

	require.Greater(t, len(result.Chunks), 1)
	for _, c := range result.Chunks {
		assert.LessOrEqual(t, len(c.Content), 60)
		assert.Less(t, c.CharStart, c.CharEnd)
		assert.LessOrEqual(t, c.CharEnd, len(result.Content))
	}
	require.NotNil(t, result.Metadata.ChunkCount)
	assert.Equal(t, len(result.Chunks), *result.Metadata.ChunkCount)
}

func TestEngine_ExtractBytes_LanguageDetection(t *testing.T) {
	engine := newTestEngine(t)
	content := "Hello world! This is English text. It should be detected as English language."

	result, err := engine.ExtractBytes(context.Background(), []byte(content), "text/plain", ExtractionConfig{
		LanguageDetection: &LanguageDetectionConfig{MinConfidence: 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"eng"}, result.DetectedLanguages)
}

// countingExtractor counts ExtractBytes invocations so cache-hit tests can
// observe whether the second call reached the extractor at all.
type countingExtractor struct {
	calls atomic.Int64
}

func (e *countingExtractor) Name() string { return "counting" }
func (e *countingExtractor) Priority() int { return 100 }
func (e *countingExtractor) SupportedMimeTypes() []string { return []string{"text/plain"} }
func (e *countingExtractor) Initialize(ctx context.Context) error { return nil }
func (e *countingExtractor) Shutdown(ctx context.Context) error { return nil }

func (e *countingExtractor) ExtractFile(ctx context.Context, path, mimeType string, cfg extract.Config) (*extract.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.ExtractBytes(ctx, data, mimeType, cfg)
}

func (e *countingExtractor) ExtractBytes(ctx context.Context, buf []byte, mimeType string, cfg extract.Config) (*extract.Output, error) {
	e.calls.Add(1)
	return &extract.Output{Content: string(buf), Metadata: map[string]interface{}{}}, nil
}

func TestEngine_ExtractBytes_SecondCallServedFromCache(t *testing.T) {
	engine := newTestEngine(t, WithoutDefaultPlugins())
	counter := &countingExtractor{}
	require.NoError(t, engine.RegisterExtractor(context.Background(), counter))

	buf := []byte(strings.Repeat("cache-hit payload bytes here. ", 2)[:50])
	cfg := ExtractionConfig{UseCache: true}

	first, err := engine.ExtractBytes(context.Background(), buf, "text/plain", cfg)
	require.NoError(t, err)
	second, err := engine.ExtractBytes(context.Background(), buf, "text/plain", cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(1), counter.calls.Load(), "second call must not reach the extractor")
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.MimeType, second.MimeType)
}

func TestEngine_ExtractBytes_EmptyTextInput(t *testing.T) {
	engine := newTestEngine(t)
	result, err := engine.ExtractBytes(context.Background(), []byte{}, "text/plain", ExtractionConfig{})
	require.NoError(t, err)
	assert.Equal(t, "", result.Content)
	assert.Nil(t, result.Metadata.Error)
}

func TestEngine_BatchExtractFile_IsolatesMissingMiddlePath(t *testing.T) {
	engine := newTestEngine(t)
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	last := filepath.Join(dir, "last.txt")
	require.NoError(t, os.WriteFile(first, []byte("first document"), 0o644))
	require.NoError(t, os.WriteFile(last, []byte("last document"), 0o644))
	missing := filepath.Join(dir, "does-not-exist.txt")

	results, err := engine.BatchExtractFile(context.Background(), []string{first, missing, last}, ExtractionConfig{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "first document", results[0].Content)
	assert.Equal(t, "last document", results[2].Content)

	assert.True(t, strings.HasPrefix(results[1].Content, "Error: "))
	assert.Equal(t, "text/plain", results[1].MimeType)
	require.NotNil(t, results[1].Metadata.Error)
	assert.NotEmpty(t, results[1].Metadata.Error.Type)
}
