package media

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateBoundsLandscape(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, "wide.png", 1200, 600)
	dest := filepath.Join(dir, "thumb_wide.png")

	gen := NewThumbnailGenerator(300, 300)
	if ok := gen.Generate(src, dest); !ok {
		t.Fatal("Generate() = false, want success")
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}

	// Aspect ratio preserved, neither dimension over the bound
	if cfg.Width != 300 || cfg.Height != 150 {
		t.Errorf("thumbnail = %dx%d, want 300x150", cfg.Width, cfg.Height)
	}
}

func TestGenerateBoundsPortrait(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, "tall.png", 400, 800)
	dest := filepath.Join(dir, "thumb_tall.png")

	gen := NewThumbnailGenerator(300, 300)
	if ok := gen.Generate(src, dest); !ok {
		t.Fatal("Generate() = false, want success")
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 150 || cfg.Height != 300 {
		t.Errorf("thumbnail = %dx%d, want 150x300", cfg.Width, cfg.Height)
	}
}

func TestGenerateSmallImageNotEnlarged(t *testing.T) {
	dir := t.TempDir()
	src := writeTestPNG(t, dir, "small.png", 100, 80)
	dest := filepath.Join(dir, "thumb_small.png")

	gen := NewThumbnailGenerator(300, 300)
	if ok := gen.Generate(src, dest); !ok {
		t.Fatal("Generate() = false, want success")
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width > 300 || cfg.Height > 300 {
		t.Errorf("thumbnail %dx%d exceeds bounding box", cfg.Width, cfg.Height)
	}
}

func TestGenerateCorruptImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(src, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, "thumb.jpg")

	gen := NewThumbnailGenerator(300, 300)
	if ok := gen.Generate(src, dest); ok {
		t.Error("Generate() = true for corrupt input, want false")
	}
	if _, err := os.Stat(dest); err == nil {
		t.Error("no thumbnail should be written for corrupt input")
	}
}

func TestGenerateDefaultBounds(t *testing.T) {
	gen := NewThumbnailGenerator(0, 0)
	if gen.maxWidth != DefaultThumbnailSize || gen.maxHeight != DefaultThumbnailSize {
		t.Errorf("defaults = %dx%d, want %dx%d",
			gen.maxWidth, gen.maxHeight, DefaultThumbnailSize, DefaultThumbnailSize)
	}
}
