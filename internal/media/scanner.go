package media

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/mediatypes"
	"photo-catalog/internal/metrics"
)

// FindImages walks the source directory tree and returns the paths of all
// eligible image files in traversal order. Hidden files and directories
// are skipped. Unreadable subtrees are logged and skipped rather than
// failing the scan.
func FindImages(sourceDir string) ([]string, error) {
	logging.Info("Finding images in directory: %s", sourceDir)
	start := time.Now()

	var files []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Root missing is fatal; anything below it is skipped
			if path == sourceDir {
				return err
			}
			logging.Warn("Skipping unreadable path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != sourceDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		if mediatypes.IsImportable(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ScannerFilesFound.Set(float64(len(files)))
	metrics.ScannerScanDuration.Observe(time.Since(start).Seconds())
	logging.Info("Found %d images", len(files))
	return files, nil
}
