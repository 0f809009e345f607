//go:build unix

package cache

import (
	"os"
	"path/filepath"
	"syscall"
)

// availableDiskSpaceMB statfs's path (or its nearest existing ancestor) and
// returns Bavail * Bsize in megabytes. The fragment size (f_frsize) is not
// consulted; Bsize is the only block size used.
func availableDiskSpaceMB(path string) float64 {
	checkPath := path
	if _, err := os.Stat(checkPath); err != nil {
		checkPath = filepath.Dir(checkPath)
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(checkPath, &stat); err != nil {
		return 10000.0
	}
	availableBytes := float64(stat.Bavail) * float64(stat.Bsize)
	return availableBytes / (1024.0 * 1024.0)
}
