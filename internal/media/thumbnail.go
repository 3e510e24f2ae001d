package media

import (
	"image"
	"image/jpeg"
	"os"
	"time"

	"github.com/disintegration/imaging"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailSize is the default bounding box for generated previews.
const DefaultThumbnailSize = 300

// ThumbnailGenerator produces bounded-size preview images. Failures are
// reported as a boolean so the import pipeline can continue without a
// thumbnail instead of aborting the item.
type ThumbnailGenerator struct {
	maxWidth  int
	maxHeight int
}

// NewThumbnailGenerator creates a generator with the given bounding box.
// Non-positive dimensions fall back to the 300x300 default.
func NewThumbnailGenerator(maxWidth, maxHeight int) *ThumbnailGenerator {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailSize
	}
	if maxHeight <= 0 {
		maxHeight = DefaultThumbnailSize
	}
	return &ThumbnailGenerator{maxWidth: maxWidth, maxHeight: maxHeight}
}

// Generate writes a resized copy of srcPath to destPath, preserving aspect
// ratio so neither dimension exceeds the bounding box. Returns true on
// success. On failure the error is logged and false is returned; the
// caller proceeds without a thumbnail.
func (t *ThumbnailGenerator) Generate(srcPath, destPath string) bool {
	start := time.Now()

	img, err := t.decode(srcPath)
	if err != nil {
		logging.Error("Error creating thumbnail for %s: %v", srcPath, err)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("failed").Inc()
		return false
	}

	thumb := imaging.Fit(img, t.maxWidth, t.maxHeight, imaging.Lanczos)

	if err := t.save(thumb, destPath); err != nil {
		logging.Error("Error saving thumbnail %s: %v", destPath, err)
		metrics.ThumbnailGenerationsTotal.WithLabelValues("failed").Inc()
		return false
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("ok").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail written: %s (%dx%d bound)", destPath, t.maxWidth, t.maxHeight)
	return true
}

// decode loads the source image, preferring the vips decode-time-shrinking
// path when libvips is initialized, then imaging, then the registered
// stdlib/x-image decoders.
func (t *ThumbnailGenerator) decode(srcPath string) (image.Image, error) {
	if IsVipsAvailable() {
		if img, err := LoadImageWithVips(srcPath, t.maxWidth, t.maxHeight); err == nil {
			return img, nil
		} else {
			logging.Debug("vips decode failed for %s, falling back: %v", srcPath, err)
		}
	}

	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging.Open failed for %s: %v, trying registered decoders", srcPath, err)

	f, openErr := os.Open(srcPath)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	img, _, err = image.Decode(f)
	return img, err
}

// save encodes the thumbnail by destination extension. Formats imaging
// cannot encode (webp) are written as JPEG under the same name so the
// thumbnail directory still holds exactly one file per record.
func (t *ThumbnailGenerator) save(img image.Image, destPath string) error {
	if err := imaging.Save(img, destPath); err == nil {
		return nil
	}

	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return jpeg.Encode(f, img, &jpeg.Options{Quality: 80})
}
