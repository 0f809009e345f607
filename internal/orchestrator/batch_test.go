package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
)

func TestBatchExtractFile_Empty(t *testing.T) {
	o := newTestOrchestrator(t, false, false)
	res, err := o.BatchExtractFile(context.Background(), nil, extract.Config{})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestBatchExtractFile_PreservesOrder(t *testing.T) {
	o := newTestOrchestrator(t, false, false)
	dir := t.TempDir()
	var paths []string
	for i, content := range []string{"one", "two", "three", "four"} {
		p := filepath.Join(dir, string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}

	results, err := o.BatchExtractFile(context.Background(), paths, extract.Config{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "one", results[0].Content)
	assert.Equal(t, "two", results[1].Content)
	assert.Equal(t, "three", results[2].Content)
	assert.Equal(t, "four", results[3].Content)
}

func TestBatchExtractFile_MissingPathDemotesToPerItemError(t *testing.T) {
	o := newTestOrchestrator(t, false, false)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte("ok"), 0o644))
	missing := filepath.Join(dir, "missing.txt")

	results, err := o.BatchExtractFile(context.Background(), []string{good, missing}, extract.Config{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ok", results[0].Content)
	assert.Contains(t, results[1].Content, "Error:")
	assert.Equal(t, "text/plain", results[1].MimeType)
	assert.NotNil(t, results[1].Metadata["error"])
}

func TestErrorResult_ShapesMetadata(t *testing.T) {
	err := &testError{msg: "bad input"}
	res := errorResult(errorkind.Validation, err)
	assert.Equal(t, "Error: bad input", res.Content)
	assert.Equal(t, "text/plain", res.MimeType)
	meta, ok := res.Metadata["error"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, string(errorkind.Validation), meta["type"])
	assert.Equal(t, "bad input", meta["message"])
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
