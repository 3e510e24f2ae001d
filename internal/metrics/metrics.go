package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import pipeline metrics
var (
	ImportRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_import_runs_total",
			Help: "Total number of import runs started",
		},
	)

	ImportItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_import_items_total",
			Help: "Total number of items processed by per-item outcome",
		},
		[]string{"outcome"}, // "imported", "skipped", "failed"
	)

	ImportItemDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_import_item_duration_seconds",
			Help:    "Per-item processing duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ImportLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_import_last_run_timestamp",
			Help: "Unix timestamp of the last completed import run",
		},
	)

	ImportProgressTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_import_progress_total",
			Help: "Total number of files discovered by the current import run",
		},
	)

	ImportProgressCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_import_progress_current",
			Help: "Number of files processed so far by the current import run",
		},
	)

	ImportRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_import_running",
			Help: "Whether an import run is currently active (1 = running, 0 = idle)",
		},
	)
)

// Classifier metrics
var (
	ClassifierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_classifier_requests_total",
			Help: "Total number of classification requests by result",
		},
		[]string{"result"}, // "ok", "http_error", "transport_error"
	)

	ClassifierRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_classifier_request_duration_seconds",
			Help:    "Classification request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	ClassifierRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_classifier_retries_total",
			Help: "Total number of classification retry attempts",
		},
	)

	ClassifierSentinelsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_classifier_sentinels_total",
			Help: "Total number of sentinel tag sets returned after retry exhaustion",
		},
		[]string{"sentinel"}, // "uncategorized", "error"
	)
)

// Catalog database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"result"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"status"}, // "ok", "failed"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

// Scanner metrics
var (
	ScannerFilesFound = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_scanner_files_found",
			Help: "Number of eligible image files found by the last directory scan",
		},
	)

	ScannerScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_scanner_scan_duration_seconds",
			Help:    "Directory scan duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)
