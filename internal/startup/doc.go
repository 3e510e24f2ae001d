// Package startup handles importer initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig];
// command-line flags in the importer binary may override individual values.
// The following environment variables are supported:
//
//   - SOURCE_DIR: Directory tree to import from, read-only (default: /import)
//   - DATABASE_DIR: Directory for the catalog database and progress file (default: /database)
//   - IMAGES_DIR: Managed directory for imported image copies (default: /images)
//   - THUMBNAILS_DIR: Managed directory for generated thumbnails (default: /thumbnails)
//   - OLLAMA_URL: Vision model generate endpoint (default: http://localhost:11434/api/generate)
//   - OLLAMA_MODEL: Model identifier sent with each request (default: llava:13b)
//   - BATCH_SIZE: Files per processing batch (default: 20)
//   - STATUS_PORT: Local status/metrics HTTP port (default: 8081)
//   - METRICS_ENABLED: Serve Prometheus metrics on the status port (default: true)
//   - LOG_FILE: Append-only log file teed with stderr (default: none)
//   - VIPS_ENABLED: Use libvips for thumbnail decoding when available (default: false)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//
// # Directory Setup
//
// The source directory must already exist and is never created. The
// database, images, and thumbnails directories are created if missing and
// must pass a write probe; any failure there aborts startup.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
