package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

// StalenessWindow is how long a non-completed progress file stays
// believable. Past this the writer is presumed dead and the file is
// healed to completed.
const StalenessWindow = 300 * time.Second

// Run statuses as written to the progress file.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// ImportProgress is the progress file payload. The timestamp is Unix
// seconds with a fractional part, matching what the browsing UI already
// parses.
type ImportProgress struct {
	Total     int     `json:"total"`
	Current   int     `json:"current"`
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// Reporter maintains a single JSON progress file that survives process
// crashes. Writes go through a temp file and rename so readers never see
// a torn payload.
type Reporter struct {
	path  string
	total int
}

// NewReporter returns a reporter for the progress file at path. Nothing
// is written until Reset.
func NewReporter(path string) *Reporter {
	return &Reporter{path: path}
}

// Path returns the progress file location.
func (r *Reporter) Path() string {
	return r.path
}

// Reset starts a new run: total items, zero progress, status "starting".
func (r *Reporter) Reset(total int) error {
	r.total = total
	metrics.ImportProgressTotal.Set(float64(total))
	metrics.ImportProgressCurrent.Set(0)
	metrics.ImportRunning.Set(1)
	return r.write(ImportProgress{
		Total:     total,
		Current:   0,
		Status:    StatusStarting,
		Timestamp: now(),
	})
}

// Advance records that current items have been attempted. Attempts, not
// successes: skipped duplicates and failed items move the counter too,
// so current always reaches total. Passing StatusCompleted marks the run
// finished.
func (r *Reporter) Advance(current int, status string) error {
	metrics.ImportProgressCurrent.Set(float64(current))
	if status == StatusCompleted {
		metrics.ImportRunning.Set(0)
	}
	return r.write(ImportProgress{
		Total:     r.total,
		Current:   current,
		Status:    status,
		Timestamp: now(),
	})
}

// Read returns the current progress file contents, or nil if the file
// does not exist.
func (r *Reporter) Read() (*ImportProgress, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var p ImportProgress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("corrupt progress file %s: %w", r.path, err)
	}
	return &p, nil
}

// IsLikelyRunning reports whether another import appears to be in
// flight. A non-completed status with a fresh timestamp means yes. A
// non-completed status older than StalenessWindow means the writer
// crashed; the file is healed to completed so the next check passes.
func (r *Reporter) IsLikelyRunning() bool {
	p, err := r.Read()
	if err != nil {
		// Unreadable or corrupt files never block a new run.
		logging.Warn("Could not read progress file, assuming no import running: %v", err)
		return false
	}
	if p == nil || p.Status == StatusCompleted {
		return false
	}

	age := now() - p.Timestamp
	if age < StalenessWindow.Seconds() {
		return true
	}

	logging.Warn("Stale progress file (age %.0fs), marking previous run as completed", age)
	healed := ImportProgress{
		Total:     p.Total,
		Current:   p.Current,
		Status:    StatusCompleted,
		Timestamp: now(),
	}
	if err := r.write(healed); err != nil {
		logging.Error("Failed to heal stale progress file: %v", err)
	}
	return false
}

// Clear removes the progress file. Missing files are not an error.
func (r *Reporter) Clear() error {
	err := os.Remove(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (r *Reporter) write(p ImportProgress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize progress: %w", err)
	}

	// Temp file plus rename keeps the read side from ever seeing a
	// partially written payload.
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".progress-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp progress file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp progress file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace progress file: %w", err)
	}
	if err := os.Chmod(r.path, 0644); err != nil {
		logging.Warn("Could not set progress file permissions: %v", err)
	}
	return nil
}

func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
