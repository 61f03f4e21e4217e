package core

import (
	"io/fs"
	"os"
	"path/filepath"
)

// CacheDirName is the directory name used for the bridge's own model cache.
const CacheDirName = "mflux"

// DefaultCacheDir returns the local target directory models are downloaded
// into (~/.cache/mflux). Does NOT create the directory — the supervisor does
// that per job.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to a relative cache next to the binary
		return filepath.Join(".cache", CacheDirName)
	}
	return filepath.Join(home, ".cache", CacheDirName)
}

// DefaultCacheRoots returns every directory the progress monitor samples.
// The download tool and the host library cache to different locations, so
// all candidates are listed; roots that do not exist on the current platform
// are skipped at sampling time.
func DefaultCacheRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{DefaultCacheDir()}
	}
	return []string{
		filepath.Join(home, ".cache", CacheDirName),
		filepath.Join(home, ".cache", "huggingface"),
		filepath.Join(home, "Library", "Caches", CacheDirName),
	}
}

// DirSize recursively sums regular file sizes under root. Entries that
// vanish mid-walk (the downloader renames temp files constantly) are
// skipped rather than failing the sample.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Root-level errors abort the walk; transient errors on
			// children are skipped.
			if path == root {
				return err
			}
			return nil
		}
		if d.Type().IsRegular() {
			if info, infoErr := d.Info(); infoErr == nil {
				total += info.Size()
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// TotalCacheSize sums DirSize across all roots. Missing roots contribute
// zero. Sizes are summed with no deduplication across roots; double counting
// overlapping caches is an accepted simplification since the result only
// feeds an advisory progress estimate.
func TotalCacheSize(roots []string) (int64, error) {
	var total int64
	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		size, err := DirSize(root)
		if err != nil {
			return 0, err
		}
		total += size
	}
	return total, nil
}
