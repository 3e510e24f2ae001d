package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/classifier"
	"photo-catalog/internal/media"
	"photo-catalog/internal/progress"
)

// testEnv wires a full pipeline against temp directories and a fake
// classification endpoint.
type testEnv struct {
	pipeline *Pipeline
	store    *catalog.Store
	reporter *progress.Reporter
	srcDir   string
	imgDir   string
	thumbDir string
}

func newTestEnv(t *testing.T, endpoint string) *testEnv {
	t.Helper()
	root := t.TempDir()

	srcDir := filepath.Join(root, "source")
	imgDir := filepath.Join(root, "images")
	thumbDir := filepath.Join(root, "thumbnails")
	for _, dir := range []string{srcDir, imgDir, thumbDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	store, err := catalog.New(context.Background(), filepath.Join(root, "catalog.db"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cls := classifier.New(classifier.Config{
		Endpoint:     endpoint,
		Model:        "llava:13b",
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})

	reporter := progress.NewReporter(filepath.Join(root, "import_progress.json"))

	cfg := Config{
		SourceDir:     srcDir,
		ImagesDir:     imgDir,
		ThumbnailsDir: thumbDir,
		BatchSize:     2,
	}
	return &testEnv{
		pipeline: New(cfg, store, cls, media.NewThumbnailGenerator(0, 0), reporter),
		store:    store,
		reporter: reporter,
		srcDir:   srcDir,
		imgDir:   imgDir,
		thumbDir: thumbDir,
	}
}

// fakeOllama returns a server that always answers with the given tags.
func fakeOllama(t *testing.T, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"response": response})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// pngBytes encodes a solid image of the given size. Same size means same
// bytes, which is how the duplicate fixtures are made.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func countImages(t *testing.T, store *catalog.Store) int {
	t.Helper()
	_, total, err := store.ListImages(context.Background(), catalog.ListOptions{})
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	return total
}

func TestRunDeduplicatesIdenticalContent(t *testing.T) {
	srv := fakeOllama(t, "TAGS: test, solid")
	env := newTestEnv(t, srv.URL)

	// Two byte-identical files under different names plus one unique.
	dup := pngBytes(t, 8, 8)
	writeFile(t, filepath.Join(env.srcDir, "a.png"), dup)
	writeFile(t, filepath.Join(env.srcDir, "nested", "b.png"), dup)
	writeFile(t, filepath.Join(env.srcDir, "c.png"), pngBytes(t, 16, 16))

	summary, err := env.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 3 || summary.Imported != 2 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want total=3 imported=2 skipped=1", summary)
	}
	if got := countImages(t, env.store); got != 2 {
		t.Errorf("catalog has %d records, want 2", got)
	}

	p, err := env.reporter.Read()
	if err != nil {
		t.Fatalf("reading progress: %v", err)
	}
	if p.Total != 3 || p.Current != 3 || p.Status != progress.StatusCompleted {
		t.Errorf("terminal progress = %+v, want {3 3 completed}", p)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	srv := fakeOllama(t, "TAGS: test")
	env := newTestEnv(t, srv.URL)

	writeFile(t, filepath.Join(env.srcDir, "a.png"), pngBytes(t, 8, 8))
	writeFile(t, filepath.Join(env.srcDir, "b.png"), pngBytes(t, 16, 16))

	if _, err := env.pipeline.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := env.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if second.Imported != 0 || second.Skipped != 2 {
		t.Errorf("second run summary = %+v, want everything skipped", second)
	}
	if got := countImages(t, env.store); got != 2 {
		t.Errorf("catalog has %d records after re-import, want 2", got)
	}
}

func TestRunMaterializesFilesAndMetadata(t *testing.T) {
	srv := fakeOllama(t, "TAGS: sunset, beach")
	env := newTestEnv(t, srv.URL)

	writeFile(t, filepath.Join(env.srcDir, "photo.png"), pngBytes(t, 600, 400))

	if _, err := env.pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	records, _, err := env.store.ListImages(context.Background(), catalog.ListOptions{})
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]

	// Stored name is a hash prefix plus the original base name.
	if !strings.HasSuffix(rec.Filename, "_photo.png") {
		t.Errorf("stored filename = %q, want *_photo.png", rec.Filename)
	}
	if !strings.HasPrefix(rec.Filename, rec.Hash[:hashPrefixLen]) {
		t.Errorf("stored filename %q should start with hash prefix %q", rec.Filename, rec.Hash[:hashPrefixLen])
	}
	if rec.Width != 600 || rec.Height != 400 {
		t.Errorf("dimensions = %dx%d, want 600x400", rec.Width, rec.Height)
	}
	if len(rec.Tags) != 2 || rec.Tags[0] != "sunset" {
		t.Errorf("tags = %v, want [sunset beach]", rec.Tags)
	}

	if _, err := os.Stat(filepath.Join(env.imgDir, rec.Filename)); err != nil {
		t.Errorf("managed image copy missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.thumbDir, rec.ThumbnailName)); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}
}

func TestRunSurvivesBadFile(t *testing.T) {
	srv := fakeOllama(t, "TAGS: test")
	env := newTestEnv(t, srv.URL)

	writeFile(t, filepath.Join(env.srcDir, "broken.jpg"), []byte("not actually a jpeg"))
	writeFile(t, filepath.Join(env.srcDir, "good.png"), pngBytes(t, 8, 8))

	summary, err := env.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The broken file still yields a record (hash works, thumbnail and
	// metadata degrade) and never aborts the run.
	if summary.Total != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want both items attempted without hard failure", summary)
	}
	if got := countImages(t, env.store); got != 2 {
		t.Errorf("catalog has %d records, want 2", got)
	}

	p, err := env.reporter.Read()
	if err != nil {
		t.Fatalf("reading progress: %v", err)
	}
	if p.Status != progress.StatusCompleted || p.Current != 2 {
		t.Errorf("terminal progress = %+v", p)
	}
}

func TestRunClassifierDownDegradesToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	env := newTestEnv(t, endpoint)
	writeFile(t, filepath.Join(env.srcDir, "a.png"), pngBytes(t, 8, 8))

	summary, err := env.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Imported != 1 {
		t.Fatalf("summary = %+v, want 1 imported despite classifier outage", summary)
	}

	records, _, err := env.store.ListImages(context.Background(), catalog.ListOptions{})
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	if len(records) != 1 || len(records[0].Tags) != 1 || records[0].Tags[0] != classifier.TagError {
		t.Errorf("tags = %v, want [%s]", records[0].Tags, classifier.TagError)
	}
}

func TestRunCancelledBetweenItems(t *testing.T) {
	srv := fakeOllama(t, "TAGS: test")
	env := newTestEnv(t, srv.URL)

	writeFile(t, filepath.Join(env.srcDir, "a.png"), pngBytes(t, 8, 8))
	writeFile(t, filepath.Join(env.srcDir, "b.png"), pngBytes(t, 16, 16))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := env.pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Cancelled {
		t.Error("summary should report cancellation")
	}
	if summary.Imported != 0 {
		t.Errorf("no items should start after cancellation, got %d imported", summary.Imported)
	}

	// Progress is still finalized so a later run is not blocked.
	p, err := env.reporter.Read()
	if err != nil {
		t.Fatalf("reading progress: %v", err)
	}
	if p.Status != progress.StatusCompleted {
		t.Errorf("progress status = %q, want completed after cancellation", p.Status)
	}
}

func TestRunEmptySource(t *testing.T) {
	srv := fakeOllama(t, "TAGS: test")
	env := newTestEnv(t, srv.URL)

	summary, err := env.pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 0 {
		t.Errorf("summary total = %d, want 0", summary.Total)
	}

	p, err := env.reporter.Read()
	if err != nil {
		t.Fatalf("reading progress: %v", err)
	}
	if p.Total != 0 || p.Status != progress.StatusCompleted {
		t.Errorf("progress = %+v, want {0 0 completed}", p)
	}
}
