package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/classifier"
	"photo-catalog/internal/importer"
	"photo-catalog/internal/logging"
	"photo-catalog/internal/media"
	"photo-catalog/internal/progress"
	"photo-catalog/internal/startup"
	"photo-catalog/internal/status"
)

func main() {
	// Flags override the environment for ad hoc runs; the environment is
	// the contract for containerized deployments.
	sourceFlag := flag.String("source", "", "source directory to import from (overrides SOURCE_DIR)")
	dbFlag := flag.String("db", "", "database directory (overrides DATABASE_DIR)")
	imagesFlag := flag.String("images-dir", "", "managed images directory (overrides IMAGES_DIR)")
	thumbsFlag := flag.String("thumbnails-dir", "", "managed thumbnails directory (overrides THUMBNAILS_DIR)")
	ollamaFlag := flag.String("ollama-url", "", "vision model endpoint (overrides OLLAMA_URL)")
	modelFlag := flag.String("model", "", "vision model identifier (overrides OLLAMA_MODEL)")
	batchFlag := flag.Int("batch-size", 0, "files per batch (overrides BATCH_SIZE)")
	flag.Parse()

	applyFlagOverrides(map[string]string{
		"SOURCE_DIR":     *sourceFlag,
		"DATABASE_DIR":   *dbFlag,
		"IMAGES_DIR":     *imagesFlag,
		"THUMBNAILS_DIR": *thumbsFlag,
		"OLLAMA_URL":     *ollamaFlag,
		"OLLAMA_MODEL":   *modelFlag,
	})
	if *batchFlag > 0 {
		os.Setenv("BATCH_SIZE", strconv.Itoa(*batchFlag))
	}

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	if config.LogFile != "" {
		if err := logging.SetOutputFile(config.LogFile); err != nil {
			startup.LogFatal("Log file error: %v", err)
		}
		defer logging.CloseOutputFile()
	}

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, falling back to pure-Go decoding: %v", err)
		} else {
			defer media.ShutdownVips()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	store, err := catalog.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Database error: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	reporter := progress.NewReporter(config.ProgressFile)
	if reporter.IsLikelyRunning() {
		startup.LogFatal("Another import appears to be running (progress file %s is fresh); "+
			"wait for it to finish or clear it with catalogctl", config.ProgressFile)
	}

	// The progress file remains the canonical cross-process contract; the
	// status server is a convenience on top of it.
	statusSrv := status.NewServer(config.StatusPort, reporter)
	go func() {
		if err := statusSrv.Start(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Status server error: %v", err)
		}
	}()

	cls := classifier.New(classifier.Config{
		Endpoint: config.OllamaURL,
		Model:    config.OllamaModel,
	})

	pipeline := importer.New(importer.Config{
		SourceDir:     config.SourceDir,
		ImagesDir:     config.ImagesDir,
		ThumbnailsDir: config.ThumbnailsDir,
		BatchSize:     config.BatchSize,
	}, store, cls, media.NewThumbnailGenerator(0, 0), reporter)

	startup.LogImportStarting(config)
	summary, err := pipeline.Run(ctx)
	if err != nil {
		startup.LogFatal("Import failed: %v", err)
	}

	if summary.Cancelled {
		startup.LogShutdownInitiated("signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := statusSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Status server shutdown error: %v", err)
	}
	startup.LogShutdownComplete()

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// applyFlagOverrides pushes non-empty flag values into the environment so
// LoadConfig sees one consistent source of truth.
func applyFlagOverrides(overrides map[string]string) {
	for key, value := range overrides {
		if value != "" {
			os.Setenv(key, value)
		}
	}
}
