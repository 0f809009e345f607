// Package cache implements the content-addressed on-disk cache shared by the
// extraction orchestrator and the OCR engine: one payload file plus a metadata
// sidecar per key, LRU-and-age eviction, and in-process single-flight marking.
package cache

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/adverant/kreuzberg/internal/logging"
)

// Config configures one Engine instance (one per cache type: "extract", "ocr").
type Config struct {
	RootDir        string // default "./.kreuzberg"
	Type           string // subdirectory under RootDir, e.g. "extract" or "ocr"
	MaxAgeDays     float64
	MaxSizeMB      float64
	MinFreeSpaceMB float64
}

func (c Config) withDefaults() Config {
	if c.RootDir == "" {
		c.RootDir = "./.kreuzberg"
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 7
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 1024
	}
	if c.MinFreeSpaceMB <= 0 {
		c.MinFreeSpaceMB = 500
	}
	return c
}

// Engine is one typed cache directory: extract results and OCR results each get
// their own Engine so their size/age budgets and eviction runs don't compete.
type Engine struct {
	dir    string
	cfg    Config
	log    *logging.Logger
	flight *inFlight
}

// New creates (or reuses) the cache directory cfg.RootDir/cfg.Type.
func New(cfg Config, log *logging.Logger) (*Engine, error) {
	cfg = cfg.withDefaults()
	dir := filepath.Join(cfg.RootDir, cfg.Type)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Engine{dir: dir, cfg: cfg, log: log, flight: newInFlight()}, nil
}

func (e *Engine) payloadPath(key string) string { return filepath.Join(e.dir, key+".msgpack") }
func (e *Engine) metaPath(key string) string { return filepath.Join(e.dir, key+".meta") }

// IsValid reports whether the entry for key exists, is within MaxAgeDays, and
// (if sourcePath is non-empty) its sidecar metadata still matches the current
// size and mtime of sourcePath.
func (e *Engine) IsValid(key string, sourcePath string) bool {
	info, err := os.Stat(e.payloadPath(key))
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()).Hours()/24 > e.cfg.MaxAgeDays {
		return false
	}
	if sourcePath == "" {
		return true
	}

	sidecar, err := os.ReadFile(e.metaPath(key))
	if err != nil || len(sidecar) < 16 {
		return false
	}
	cachedSize := binary.LittleEndian.Uint64(sidecar[0:8])
	cachedMtime := binary.LittleEndian.Uint64(sidecar[8:16])

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false
	}
	return cachedSize == uint64(srcInfo.Size()) && cachedMtime == uint64(srcInfo.ModTime().Unix())
}

// Get returns the cached payload for key, or (nil, false) on a miss. A stale or
// corrupt entry is deleted as part of the miss.
func (e *Engine) Get(key string, sourcePath string) ([]byte, bool) {
	if !e.IsValid(key, sourcePath) {
		_ = removePair(e.dir, key)
		return nil, false
	}
	data, err := os.ReadFile(e.payloadPath(key))
	if err != nil {
		_ = removePair(e.dir, key)
		return nil, false
	}
	return data, true
}

// Set writes payload for key, writing through a temp file and renaming into
// place so a crash mid-write never leaves a truncated payload visible to
// readers. If sourcePath is non-empty its size/mtime are recorded in the
// sidecar. A cleanup pass is triggered probabilistically (hash(key) mod 100 ==
// 0) so most writes pay no eviction-scan cost.
func (e *Engine) Set(key string, payload []byte, sourcePath string) error {
	if err := writeAtomic(e.payloadPath(key), payload); err != nil {
		return err
	}
	if sourcePath != "" {
		if info, err := os.Stat(sourcePath); err == nil {
			var sidecar [16]byte
			binary.LittleEndian.PutUint64(sidecar[0:8], uint64(info.Size()))
			binary.LittleEndian.PutUint64(sidecar[8:16], uint64(info.ModTime().Unix()))
			_ = writeAtomic(e.metaPath(key), sidecar[:])
		}
	}

	if FastHash([]byte(key))%100 == 0 {
		smartCleanup(e.log, e.dir, e.cfg.MaxAgeDays, e.cfg.MaxSizeMB, e.cfg.MinFreeSpaceMB, e.flight.isProcessing)
	}
	return nil
}

// Clear deletes every payload (and its sidecar) under the cache directory,
// reporting the number of entries removed and the megabytes freed.
func (e *Engine) Clear() (count int, freedMB float64, err error) {
	_, entries, err := scanDirectory(e.dir)
	if err != nil {
		return 0, 0, err
	}
	for _, ent := range entries {
		key := keyOf(ent.path)
		if rmErr := removePair(e.dir, key); rmErr != nil {
			e.log.Warn("cache clear failed to remove entry", "path", ent.path, "error", rmErr)
			continue
		}
		count++
		freedMB += float64(ent.size) / (1024 * 1024)
	}
	return count, freedMB, nil
}

// Stats reports the current footprint of the cache directory.
func (e *Engine) Stats() (Stats, error) {
	stats, _, err := scanDirectory(e.dir)
	return stats, err
}

// IsProcessing, MarkProcessing and MarkComplete expose the single-flight
// in-flight key set to callers (the orchestrator). The marker never blocks or
// deduplicates the computation: a second caller that sees a key in flight still
// does its own work and only skips its redundant cache write.
func (e *Engine) IsProcessing(key string) bool { return e.flight.isProcessing(key) }
func (e *Engine) MarkProcessing(key string)    { e.flight.markProcessing(key) }
func (e *Engine) MarkComplete(key string)      { e.flight.markComplete(key) }

func removePair(dir, key string) error {
	p1 := filepath.Join(dir, key+".msgpack")
	p2 := filepath.Join(dir, key+".meta")
	err1 := os.Remove(p1)
	err2 := os.Remove(p2)
	if err1 != nil && !errors.Is(err1, os.ErrNotExist) {
		return err1
	}
	if err2 != nil && !errors.Is(err2, os.ErrNotExist) {
		return err2
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
