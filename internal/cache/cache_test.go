package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/logging"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{RootDir: t.TempDir(), Type: "extract"}, logging.Default("cache-test"))
	require.NoError(t, err)
	return e
}

func TestSetThenGet(t *testing.T) {
	e := newTestEngine(t)

	_, ok := e.Get("abc", "")
	assert.False(t, ok, "expected a miss before Set")

	require.NoError(t, e.Set("abc", []byte("payload"), ""))

	data, ok := e.Get("abc", "")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)
}

func TestGet_InvalidatedBySourceChange(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o644))

	require.NoError(t, e.Set("key1", []byte("cached-v1"), src))
	data, ok := e.Get("key1", src)
	require.True(t, ok)
	assert.Equal(t, []byte("cached-v1"), data)

	require.NoError(t, os.WriteFile(src, []byte("a much longer v2 payload"), 0o644))
	_, ok = e.Get("key1", src)
	assert.False(t, ok, "expected a cache miss once the source file's size changed")
}

func TestClear(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Set("a", []byte("111"), ""))
	require.NoError(t, e.Set("b", []byte("222"), ""))

	count, _, err := e.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, ok := e.Get("a", "")
	assert.False(t, ok)
	_, ok = e.Get("b", "")
	assert.False(t, ok)
}

func TestStats_CountsEntries(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Set("a", []byte("12345"), ""))
	require.NoError(t, e.Set("b", []byte("67890"), ""))

	stats, err := e.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Greater(t, stats.TotalSizeMB, 0.0)
}

func TestProcessingMarkers(t *testing.T) {
	e := newTestEngine(t)
	assert.False(t, e.IsProcessing("k"))
	e.MarkProcessing("k")
	assert.True(t, e.IsProcessing("k"))
	e.MarkComplete("k")
	assert.False(t, e.IsProcessing("k"))
}
