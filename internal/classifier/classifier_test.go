package classifier

import (
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "marker with noise and invalid tokens",
			response: "blah TAGS: cat, dog, red car, , sunny",
			want:     []string{"cat", "dog", "sunny"},
		},
		{
			name:     "no marker falls back to whole response",
			response: "cat, dog",
			want:     []string{"cat", "dog"},
		},
		{
			name:     "all invalid yields sentinel",
			response: "a very long sentence about the image",
			want:     []string{TagUncategorized},
		},
		{
			name:     "empty response yields sentinel",
			response: "",
			want:     []string{TagUncategorized},
		},
		{
			name:     "marker with trailing prose tokens dropped",
			response: "TAGS: sunset, beach, ocean waves, rocks",
			want:     []string{"sunset", "beach", "rocks"},
		},
		{
			name:     "order preserved",
			response: "TAGS: zebra, apple, mango",
			want:     []string{"zebra", "apple", "mango"},
		},
		{
			name:     "whitespace-padded tokens trimmed",
			response: "TAGS:   cat ,  dog  ,bird",
			want:     []string{"cat", "dog", "bird"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTags(tt.response)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTags(%q) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

// writeTestImage writes a small PNG the classifier can read and encode.
func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:     endpoint,
		Model:        "llava:13b",
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}
}

func TestClassifySuccess(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "TAGS: sunset, beach, ocean"})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	tags := c.Classify(context.Background(), writeTestImage(t))

	want := []string{"sunset", "beach", "ocean"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("Classify() = %v, want %v", tags, want)
	}

	if gotReq.Model != "llava:13b" {
		t.Errorf("request model = %q, want llava:13b", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("request should set stream:false")
	}
	if len(gotReq.Images) != 1 || gotReq.Images[0] == "" {
		t.Error("request should carry exactly one base64 image payload")
	}
}

func TestClassifyRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "TAGS: cat"})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	tags := c.Classify(context.Background(), writeTestImage(t))

	if !reflect.DeepEqual(tags, []string{"cat"}) {
		t.Errorf("Classify() = %v, want [cat]", tags)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3 (1 initial + 2 retries)", hits.Load())
	}
}

func TestClassifyHTTPErrorExhaustion(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	tags := c.Classify(context.Background(), writeTestImage(t))

	if !reflect.DeepEqual(tags, []string{TagUncategorized}) {
		t.Errorf("Classify() = %v, want [%s]", tags, TagUncategorized)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3 (retry budget exhausted)", hits.Load())
	}
}

func TestClassifyTransportErrorExhaustion(t *testing.T) {
	// A closed server guarantees connection-refused transport failures.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c := New(testConfig(endpoint))
	tags := c.Classify(context.Background(), writeTestImage(t))

	if !reflect.DeepEqual(tags, []string{TagError}) {
		t.Errorf("Classify() = %v, want [%s]", tags, TagError)
	}
}

func TestClassifyUnreadableImage(t *testing.T) {
	c := New(testConfig("http://localhost:0"))
	tags := c.Classify(context.Background(), filepath.Join(t.TempDir(), "missing.png"))

	if !reflect.DeepEqual(tags, []string{TagError}) {
		t.Errorf("Classify() = %v, want [%s]", tags, TagError)
	}
}

func TestClassifyEmptyParseFallsBackToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "this model ignored all the rules"})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	tags := c.Classify(context.Background(), writeTestImage(t))

	if !reflect.DeepEqual(tags, []string{TagUncategorized}) {
		t.Errorf("Classify() = %v, want [%s]", tags, TagUncategorized)
	}
}
