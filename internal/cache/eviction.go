package cache

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/adverant/kreuzberg/internal/logging"
)

// Stats summarizes a cache directory's current footprint, the shape reported by
// the CLI's "cache stats" subcommand and consulted by smartCleanup.
type Stats struct {
	TotalFiles        int     `json:"total_files"`
	TotalSizeMB       float64 `json:"total_size_mb"`
	AvailableSpaceMB  float64 `json:"available_space_mb"`
	OldestFileAgeDays float64 `json:"oldest_file_age_days"`
	NewestFileAgeDays float64 `json:"newest_file_age_days"`
}

type scanEntry struct {
	path     string
	size     int64
	modified time.Time
}

func scanDirectory(dir string) (Stats, []scanEntry, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return Stats{AvailableSpaceMB: availableDiskSpaceMB(dir)}, nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, nil, err
	}

	now := time.Now()
	var totalSize int64
	var oldestAge, newestAge float64
	newestAge = 1 << 62

	var scanned []scanEntry
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".msgpack" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		totalSize += info.Size()
		ageDays := now.Sub(info.ModTime()).Hours() / 24
		if ageDays > oldestAge {
			oldestAge = ageDays
		}
		if ageDays < newestAge {
			newestAge = ageDays
		}
		scanned = append(scanned, scanEntry{
			path:     filepath.Join(dir, de.Name()),
			size:     info.Size(),
			modified: info.ModTime(),
		})
	}
	if len(scanned) == 0 {
		oldestAge, newestAge = 0, 0
	}

	return Stats{
		TotalFiles:        len(scanned),
		TotalSizeMB:       float64(totalSize) / (1024 * 1024),
		AvailableSpaceMB:  availableDiskSpaceMB(dir),
		OldestFileAgeDays: oldestAge,
		NewestFileAgeDays: newestAge,
	}, scanned, nil
}

// cleanup deletes every entry older than maxAgeDays, then, if the remaining total
// still exceeds maxSizeMB, deletes by ascending modification time (LRU) until the
// total is at or below maxSizeMB*targetRatio. Entries whose key is in skip
// (currently marked processing) are never removed. I/O failures during deletion
// are logged and skipped, never surfaced to the caller.
func cleanup(log *logging.Logger, dir string, maxAgeDays, maxSizeMB, targetRatio float64, skip func(key string) bool) (removedCount int, removedMB float64) {
	_, entries, err := scanDirectory(dir)
	if err != nil {
		log.Warn("cache cleanup scan failed", "dir", dir, "error", err)
		return 0, 0
	}
	if len(entries) == 0 {
		return 0, 0
	}

	maxAge := time.Duration(maxAgeDays * float64(24*time.Hour))
	now := time.Now()

	var remaining []scanEntry
	var remainingSize int64
	for _, e := range entries {
		if skip(keyOf(e.path)) {
			remaining = append(remaining, e)
			remainingSize += e.size
			continue
		}
		if now.Sub(e.modified) > maxAge {
			if err := removePair(dir, keyOf(e.path)); err != nil {
				log.Warn("cache eviction failed to remove aged entry", "path", e.path, "error", err)
				remaining = append(remaining, e)
				remainingSize += e.size
				continue
			}
			removedCount++
			removedMB += float64(e.size) / (1024 * 1024)
			continue
		}
		remaining = append(remaining, e)
		remainingSize += e.size
	}

	totalMB := float64(remainingSize) / (1024 * 1024)
	if totalMB <= maxSizeMB {
		return removedCount, removedMB
	}

	sortByModTimeAscending(remaining)
	target := maxSizeMB * targetRatio
	for _, e := range remaining {
		if totalMB <= target {
			break
		}
		if skip(keyOf(e.path)) {
			continue
		}
		if err := removePair(dir, keyOf(e.path)); err != nil {
			log.Warn("cache eviction failed to remove entry over budget", "path", e.path, "error", err)
			continue
		}
		sizeMB := float64(e.size) / (1024 * 1024)
		removedCount++
		removedMB += sizeMB
		totalMB -= sizeMB
	}
	return removedCount, removedMB
}

// smartCleanup triggers cleanup only when one of the three pressure conditions
// holds, using target_ratio 0.5 under space pressure and 0.8 otherwise.
func smartCleanup(log *logging.Logger, dir string, maxAgeDays, maxSizeMB, minFreeSpaceMB float64, skip func(key string) bool) (int, float64) {
	stats, _, err := scanDirectory(dir)
	if err != nil {
		log.Warn("cache smart cleanup scan failed", "dir", dir, "error", err)
		return 0, 0
	}

	needsCleanup := stats.AvailableSpaceMB < minFreeSpaceMB ||
		stats.TotalSizeMB > maxSizeMB ||
		stats.OldestFileAgeDays > maxAgeDays
	if !needsCleanup {
		return 0, 0
	}

	targetRatio := 0.8
	if stats.AvailableSpaceMB < minFreeSpaceMB {
		targetRatio = 0.5
	}
	return cleanup(log, dir, maxAgeDays, maxSizeMB, targetRatio, skip)
}

func sortByModTimeAscending(entries []scanEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].modified.Before(entries[j].modified) })
}

func keyOf(payloadPath string) string {
	base := filepath.Base(payloadPath)
	return base[:len(base)-len(filepath.Ext(base))]
}
