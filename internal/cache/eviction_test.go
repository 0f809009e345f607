package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adverant/kreuzberg/internal/logging"
)

// entryDir is where New(Config{RootDir: root, Type: "extract"}) actually
// places entries.
func entryDir(root string) string {
	return filepath.Join(root, "extract")
}

func touchOld(t *testing.T, root, key string, age time.Duration) {
	t.Helper()
	old := time.Now().Add(-age)
	payload := filepath.Join(entryDir(root), key+".msgpack")
	require.NoError(t, os.Chtimes(payload, old, old))
	meta := filepath.Join(entryDir(root), key+".meta")
	if _, err := os.Stat(meta); err == nil {
		require.NoError(t, os.Chtimes(meta, old, old))
	}
}

func TestKeyOf_StripsExtension(t *testing.T) {
	assert.Equal(t, "abc123", keyOf(filepath.Join("/some/dir", "abc123.msgpack")))
}

func TestCleanup_RemovesAgedEntries(t *testing.T) {
	log := logging.Default("eviction-test")
	dir := t.TempDir()
	e, err := New(Config{RootDir: dir, Type: "extract"}, log)
	require.NoError(t, err)

	require.NoError(t, e.Set("old", []byte("stale"), ""))
	require.NoError(t, e.Set("fresh", []byte("recent"), ""))
	touchOld(t, dir, "old", 48*time.Hour)

	removed, _ := cleanup(log, entryDir(dir), 1, 1000, 0.8, func(string) bool { return false })
	assert.Equal(t, 1, removed)

	_, ok := e.Get("old", "")
	assert.False(t, ok)
	_, ok = e.Get("fresh", "")
	assert.True(t, ok)
}

func TestCleanup_SkipsEntriesMarkedProcessing(t *testing.T) {
	log := logging.Default("eviction-test")
	dir := t.TempDir()
	e, err := New(Config{RootDir: dir, Type: "extract"}, log)
	require.NoError(t, err)

	require.NoError(t, e.Set("k", []byte("v"), ""))
	touchOld(t, dir, "k", 48*time.Hour)

	removed, _ := cleanup(log, entryDir(dir), 1, 1000, 0.8, func(key string) bool { return key == "k" })
	assert.Equal(t, 0, removed)
	_, ok := e.Get("k", "")
	assert.True(t, ok)
}

func TestCleanup_EvictsLRUWhenOverSizeBudget(t *testing.T) {
	log := logging.Default("eviction-test")
	dir := t.TempDir()
	e, err := New(Config{RootDir: dir, Type: "extract"}, log)
	require.NoError(t, err)

	payload := make([]byte, 1024*200) // 200KB
	require.NoError(t, e.Set("first", payload, ""))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, e.Set("second", payload, ""))

	// Budget smaller than total but big enough for one entry.
	removed, _ := cleanup(log, entryDir(dir), 365, 0.25, 0.5, func(string) bool { return false })
	assert.GreaterOrEqual(t, removed, 1)

	_, firstOK := e.Get("first", "")
	assert.False(t, firstOK, "the older entry should be evicted first")
}

func TestSmartCleanup_NoOpWhenNoPressure(t *testing.T) {
	log := logging.Default("eviction-test")
	dir := t.TempDir()
	e, err := New(Config{RootDir: dir, Type: "extract"}, log)
	require.NoError(t, err)
	require.NoError(t, e.Set("k", []byte("v"), ""))

	removed, _ := smartCleanup(log, entryDir(dir), 365, 1_000_000, 0, func(string) bool { return false })
	assert.Equal(t, 0, removed)
}
