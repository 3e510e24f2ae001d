package main

import (
	"os"
	"path/filepath"
	"testing"

	"photo-catalog/internal/progress"
)

func TestShowProgressNoFile(t *testing.T) {
	reporter := progress.NewReporter(filepath.Join(t.TempDir(), "import_progress.json"))
	if !showProgress(reporter) {
		t.Error("showProgress should succeed with no progress file")
	}
}

func TestShowProgressWithFile(t *testing.T) {
	reporter := progress.NewReporter(filepath.Join(t.TempDir(), "import_progress.json"))
	if err := reporter.Reset(12); err != nil {
		t.Fatal(err)
	}
	if !showProgress(reporter) {
		t.Error("showProgress should succeed with a progress file")
	}
}

func TestClearProgress(t *testing.T) {
	reporter := progress.NewReporter(filepath.Join(t.TempDir(), "import_progress.json"))
	if err := reporter.Reset(3); err != nil {
		t.Fatal(err)
	}

	if !clearProgress(reporter) {
		t.Fatal("clearProgress failed")
	}
	if _, err := os.Stat(reporter.Path()); !os.IsNotExist(err) {
		t.Error("progress file should be gone after clear")
	}

	// Clearing an already-clean state is fine.
	if !clearProgress(reporter) {
		t.Error("second clearProgress should succeed")
	}
}

func TestShowStats(t *testing.T) {
	if !showStats(t.TempDir()) {
		t.Error("showStats should succeed against a fresh database directory")
	}
}
