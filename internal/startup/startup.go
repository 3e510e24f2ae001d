package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"photo-catalog/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all importer configuration
type Config struct {
	SourceDir      string
	DatabaseDir    string
	ImagesDir      string
	ThumbnailsDir  string
	OllamaURL      string
	OllamaModel    string
	BatchSize      int
	StatusPort     string
	MetricsEnabled bool
	LogFile        string
	VipsEnabled    bool

	// Derived paths
	DatabasePath string
	ProgressFile string
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	sourceDir := getEnv("SOURCE_DIR", "/import")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	imagesDir := getEnv("IMAGES_DIR", "/images")
	thumbnailsDir := getEnv("THUMBNAILS_DIR", "/thumbnails")
	ollamaURL := getEnv("OLLAMA_URL", "http://localhost:11434/api/generate")
	ollamaModel := getEnv("OLLAMA_MODEL", "llava:13b")
	batchSize := getEnvInt("BATCH_SIZE", 20)
	statusPort := getEnv("STATUS_PORT", "8081")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logFile := getEnv("LOG_FILE", "")
	vipsEnabled := getEnvBool("VIPS_ENABLED", false)

	logging.Info("  SOURCE_DIR:      %s", sourceDir)
	logging.Info("  DATABASE_DIR:    %s", databaseDir)
	logging.Info("  IMAGES_DIR:      %s", imagesDir)
	logging.Info("  THUMBNAILS_DIR:  %s", thumbnailsDir)
	logging.Info("  OLLAMA_URL:      %s", ollamaURL)
	logging.Info("  OLLAMA_MODEL:    %s", ollamaModel)
	logging.Info("  BATCH_SIZE:      %d", batchSize)
	logging.Info("  STATUS_PORT:     %s", statusPort)
	logging.Info("  METRICS_ENABLED: %v", metricsEnabled)
	logging.Info("  VIPS_ENABLED:    %v", vipsEnabled)
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())
	if logFile != "" {
		logging.Info("  LOG_FILE:        %s", logFile)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	sourceDir, err = filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source directory path: %w", err)
	}
	logging.Info("  Source directory (absolute): %s", sourceDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	imagesDir, err = filepath.Abs(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve images directory path: %w", err)
	}
	thumbnailsDir, err = filepath.Abs(thumbnailsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve thumbnails directory path: %w", err)
	}

	// The source tree must exist; it is read-only and never created here.
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory", sourceDir)
	}
	logging.Info("  [OK] Source directory exists")

	// Database, images, and thumbnails directories are all required
	// write targets.
	for _, target := range []struct {
		path, name string
	}{
		{databaseDir, "database"},
		{imagesDir, "images"},
		{thumbnailsDir, "thumbnails"},
	} {
		if err := ensureDirectory(target.path, target.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", target.name, err)
		}
		if err := testWriteAccess(target.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", target.name, err)
		}
		logging.Info("  [OK] %s directory is writable", target.name)
	}

	config := &Config{
		SourceDir:      sourceDir,
		DatabaseDir:    databaseDir,
		ImagesDir:      imagesDir,
		ThumbnailsDir:  thumbnailsDir,
		OllamaURL:      ollamaURL,
		OllamaModel:    ollamaModel,
		BatchSize:      batchSize,
		StatusPort:     statusPort,
		MetricsEnabled: metricsEnabled,
		LogFile:        logFile,
		VipsEnabled:    vipsEnabled,
		DatabasePath:   filepath.Join(databaseDir, "catalog.db"),
		ProgressFile:   filepath.Join(databaseDir, "import_progress.json"),
	}

	return config, nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogImportStarting logs the import run header
func LogImportStarting(config *Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMPORT STARTING")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Source:     %s", config.SourceDir)
	logging.Info("  Images:     %s", config.ImagesDir)
	logging.Info("  Thumbnails: %s", config.ThumbnailsDir)
	logging.Info("  Classifier: %s (%s)", config.OllamaURL, config.OllamaModel)
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __           ______      __        __
   / __ \/ /_  ____  / /_____     / ____/___ _/ /_____ _/ /___  ____ _
  / /_/ / __ \/ __ \/ __/ __ \   / /   / __ '/ __/ __ '/ / __ \/ __ '/
 / ____/ / / / /_/ / /_/ /_/ /  / /___/ /_/ / /_/ /_/ / / /_/ / /_/ /
/_/   /_/ /_/\____/\__/\____/   \____/\__,_/\__/\__,_/_/\____/\__, /
                                                             /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
