package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/classifier"
	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/metrics"
	"photo-catalog/internal/progress"
)

// DefaultBatchSize bounds how many files are logged per batch. Chunk
// boundaries have no transactional meaning.
const DefaultBatchSize = 20

// hashPrefixLen is how many hash characters prefix a stored filename.
// Enough to keep same-named files from different directories apart while
// leaving the original name human-readable.
const hashPrefixLen = 10

// outcome classifies one item attempt.
type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeImported:
		return "imported"
	case outcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Config carries everything the pipeline needs; no package-level state.
type Config struct {
	SourceDir     string
	ImagesDir     string
	ThumbnailsDir string
	BatchSize     int
}

// Summary is the terminal result of one import run.
type Summary struct {
	Total     int
	Imported  int
	Skipped   int
	Failed    int
	Cancelled bool
}

// Pipeline processes a source directory tree sequentially, one file at a
// time, writing one catalog record per distinct file content.
type Pipeline struct {
	cfg        Config
	store      *catalog.Store
	classifier *classifier.Client
	thumbs     *media.ThumbnailGenerator
	reporter   *progress.Reporter
}

// New assembles a pipeline from its collaborators.
func New(cfg Config, store *catalog.Store, cls *classifier.Client, thumbs *media.ThumbnailGenerator, reporter *progress.Reporter) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		classifier: cls,
		thumbs:     thumbs,
		reporter:   reporter,
	}
}

// Run scans the source tree and imports every eligible file. Per-item
// failures are logged and counted, never fatal to the run. Cancelling
// the context stops the pipeline between items; the in-flight item
// always finishes first.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	metrics.ImportRunsTotal.Inc()
	defer metrics.ImportLastRunTimestamp.SetToCurrentTime()

	files, err := media.FindImages(p.cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	summary := &Summary{Total: len(files)}

	if err := p.reporter.Reset(len(files)); err != nil {
		return nil, fmt.Errorf("failed to initialize progress: %w", err)
	}

	processed := 0
	for start := 0; start < len(files); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(files) {
			end = len(files)
		}
		logging.Debug("Processing batch %d-%d of %d", start+1, end, len(files))

		for _, path := range files[start:end] {
			if err := ctx.Err(); err != nil {
				summary.Cancelled = true
				logging.Warn("Import cancelled after %d/%d items", processed, len(files))
				p.finish(processed, summary)
				return summary, nil
			}

			itemStart := time.Now()
			result := p.processItem(ctx, path)
			metrics.ImportItemDuration.Observe(time.Since(itemStart).Seconds())
			metrics.ImportItemsTotal.WithLabelValues(result.String()).Inc()

			switch result {
			case outcomeImported:
				summary.Imported++
			case outcomeSkipped:
				summary.Skipped++
			case outcomeFailed:
				summary.Failed++
			}

			// Attempts, not successes: every outcome advances the counter.
			processed++
			if err := p.reporter.Advance(processed, progress.StatusProcessing); err != nil {
				logging.Error("Failed to update progress: %v", err)
			}
			logging.Info("Processed %d/%d: %s", processed, len(files), filepath.Base(path))
		}
	}

	p.finish(processed, summary)
	return summary, nil
}

func (p *Pipeline) finish(processed int, summary *Summary) {
	if err := p.reporter.Advance(processed, progress.StatusCompleted); err != nil {
		logging.Error("Failed to finalize progress: %v", err)
	}
	logging.Info("Import completed. Processed: %d, Skipped: %d", summary.Imported, summary.Skipped)
	if summary.Failed > 0 {
		logging.Warn("%d items failed; see log above for paths", summary.Failed)
	}
}

// processItem runs the per-item algorithm. It never returns an error:
// everything is caught here, logged with the offending path, and folded
// into the outcome so one bad file never aborts the run.
func (p *Pipeline) processItem(ctx context.Context, path string) outcome {
	hash, err := media.FileHash(path)
	if err != nil {
		logging.Error("Failed to hash %s: %v", path, err)
		return outcomeFailed
	}

	existing, err := p.store.FindByHash(ctx, hash)
	if err != nil {
		logging.Error("Dedup check failed for %s: %v", path, err)
		return outcomeFailed
	}
	if existing != nil {
		logging.Info("Skipping duplicate: %s", filepath.Base(path))
		return outcomeSkipped
	}

	// Hash prefix keeps same-named files from different source
	// directories apart while staying human-traceable.
	storedName := hash[:hashPrefixLen] + "_" + filepath.Base(path)
	destPath := filepath.Join(p.cfg.ImagesDir, storedName)
	thumbPath := filepath.Join(p.cfg.ThumbnailsDir, storedName)

	if err := copyFile(path, destPath); err != nil {
		logging.Error("Failed to copy %s: %v", path, err)
		return outcomeFailed
	}

	thumbName := storedName
	if !p.thumbs.Generate(destPath, thumbPath) {
		// Degraded item: the record is still created without a preview.
		logging.Warn("Continuing without thumbnail for %s", filepath.Base(path))
		thumbName = ""
	}

	// Metadata and classification both read the managed copy, not the
	// source, so the catalog never references bytes that failed to land.
	meta := media.ExtractMetadata(destPath)
	tags := p.classifier.Classify(ctx, destPath)

	rec := &catalog.ImageRecord{
		Filename:      storedName,
		OriginalPath:  path,
		Hash:          hash,
		ThumbnailName: thumbName,
		Tags:          tags,
		DateTaken:     meta.DateTaken,
		CameraModel:   meta.CameraModel,
		Lens:          meta.Lens,
		Aperture:      meta.Aperture,
		ShutterSpeed:  meta.ShutterSpeed,
		ISO:           meta.ISO,
		FocalLength:   meta.FocalLength,
		GPS:           meta.GPS,
		Width:         meta.Width,
		Height:        meta.Height,
	}

	if err := p.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, catalog.ErrDuplicateHash) {
			// Lost the dedup race to another writer between the
			// pre-check and the insert.
			logging.Warn("Duplicate hash on insert for %s: %v", path, err)
		} else {
			logging.Error("Failed to insert record for %s: %v", path, err)
		}
		return outcomeFailed
	}

	logging.Debug("Imported %s as %s (%d tags)", path, storedName, len(tags))
	return outcomeImported
}

// copyFile copies src to dst, replacing dst if it exists.
func copyFile(src, dst string) error {
	in, err := filesystem.OpenWithRetry(src, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy content: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to finalize destination: %w", err)
	}
	return nil
}
