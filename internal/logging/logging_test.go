package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevelConstants(t *testing.T) {
	// Verify log level ordering
	if LevelDebug >= LevelInfo {
		t.Error("LevelDebug should be less than LevelInfo")
	}
	if LevelInfo >= LevelWarn {
		t.Error("LevelInfo should be less than LevelWarn")
	}
	if LevelWarn >= LevelError {
		t.Error("LevelWarn should be less than LevelError")
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.level.String()
			if got != tt.expected {
				t.Errorf("LogLevel.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSetOutputFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "import_log.txt")

	if err := SetOutputFile(logPath); err != nil {
		t.Fatalf("SetOutputFile() error = %v", err)
	}
	defer CloseOutputFile()

	Info("processed %d/%d: %s", 1, 3, "photo.jpg")
	Error("could not hash file: %s", "broken.jpg")

	CloseOutputFile()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "[INFO] processed 1/3: photo.jpg") {
		t.Errorf("log file missing info line, got:\n%s", content)
	}
	if !strings.Contains(content, "[ERROR] could not hash file: broken.jpg") {
		t.Errorf("log file missing error line, got:\n%s", content)
	}
}

func TestSetOutputFileAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "import_log.txt")

	if err := SetOutputFile(logPath); err != nil {
		t.Fatalf("SetOutputFile() error = %v", err)
	}
	Info("first run")
	CloseOutputFile()

	if err := SetOutputFile(logPath); err != nil {
		t.Fatalf("SetOutputFile() second open error = %v", err)
	}
	Info("second run")
	CloseOutputFile()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "first run") || !strings.Contains(content, "second run") {
		t.Errorf("log file should contain lines from both runs, got:\n%s", content)
	}
}

func TestLoggingFunctionsDoNotPanic(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"Debug", func() { Debug("test %s %d", "message", 123) }},
		{"Info", func() { Info("test %s %d", "message", 123) }},
		{"Warn", func() { Warn("test %s %d", "message", 123) }},
		{"Error", func() { Error("test %s %d", "message", 123) }},
		{"Printf", func() { Printf("test %s %d", "message", 123) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Function panicked: %v", r)
				}
			}()
			tt.fn()
		})
	}
}
