package media

import (
	"image"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"photo-catalog/internal/filesystem"
	"photo-catalog/internal/logging"
)

// exifTimeLayout is the fixed timestamp format used by EXIF DateTimeOriginal.
const exifTimeLayout = "2006:01:02 15:04:05"

// Metadata holds the capture metadata extracted from an image file.
// Every field is optional (empty string = absent) except Width/Height,
// which are read from the image dimensions whenever the file decodes.
type Metadata struct {
	DateTaken    string // RFC 3339, from DateTimeOriginal
	CameraModel  string // "<Make> <Model>" or "<Model>"
	Lens         string
	Aperture     string // "f/2.8"
	ShutterSpeed string // "1/250s" or "2.0s"
	ISO          string // "ISO 100"
	FocalLength  string // "50mm"
	GPS          string // "<lat>,<lon>" signed decimal degrees
	Width        int
	Height       int
}

// ExtractMetadata reads embedded capture metadata from an image file.
// Extraction is strictly best-effort: images with no EXIF block, or with
// individual corrupt fields, yield a partial Metadata. It never returns
// an error; a file that cannot be decoded at all yields a zero Metadata.
func ExtractMetadata(path string) Metadata {
	var md Metadata

	md.Width, md.Height = imageDimensions(path)

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("Error opening %s for metadata: %v", path, err)
		return md
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF block is the common case for screenshots and web images
		logging.Debug("No EXIF metadata in %s: %v", path, err)
		return md
	}

	if s, ok := exifString(x, exif.DateTimeOriginal); ok {
		if t, err := time.ParseInLocation(exifTimeLayout, s, time.Local); err == nil {
			md.DateTaken = t.Format(time.RFC3339)
		}
	}

	cameraMake, haveMake := exifString(x, exif.Make)
	model, haveModel := exifString(x, exif.Model)
	switch {
	case haveMake && haveModel:
		md.CameraModel = strings.TrimSpace(cameraMake + " " + model)
	case haveModel:
		md.CameraModel = model
	}

	if s, ok := exifString(x, exif.LensModel); ok {
		md.Lens = s
	}

	if v, ok := exifFloat(x, exif.FNumber); ok && v > 0 {
		md.Aperture = "f/" + formatFloat(v)
	}

	if v, ok := exifFloat(x, exif.ExposureTime); ok {
		md.ShutterSpeed = formatShutterSpeed(v)
	}

	if n, ok := exifInt(x, exif.ISOSpeedRatings); ok {
		md.ISO = "ISO " + strconv.Itoa(n)
	}

	if v, ok := exifFloat(x, exif.FocalLength); ok {
		md.FocalLength = formatFloat(v) + "mm"
	}

	md.GPS = extractGPS(x)

	return md
}

// imageDimensions decodes just the image header for pixel dimensions.
func imageDimensions(path string) (int, int) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("Error opening %s for dimensions: %v", path, err)
		return 0, 0
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		logging.Debug("Could not decode dimensions of %s: %v", path, err)
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// extractGPS composes a signed decimal "<lat>,<lon>" pair from the EXIF
// degree/minute/second triples. Absent unless both latitude and longitude
// component arrays are present.
func extractGPS(x *exif.Exif) string {
	lat, latOK := exifDMS(x, exif.GPSLatitude)
	lon, lonOK := exifDMS(x, exif.GPSLongitude)
	if !latOK || !lonOK {
		return ""
	}

	if ref, ok := exifString(x, exif.GPSLatitudeRef); ok && ref == "S" {
		lat = -lat
	}
	if ref, ok := exifString(x, exif.GPSLongitudeRef); ok && ref == "W" {
		lon = -lon
	}

	return formatFloat(lat) + "," + formatFloat(lon)
}

// exifDMS reads a degrees/minutes/seconds rational triple and converts it
// to decimal degrees.
func exifDMS(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}

	var parts [3]float64
	for i := 0; i < 3; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, false
		}
		parts[i] = float64(num) / float64(den)
	}

	return dmsToDecimal(parts[0], parts[1], parts[2]), true
}

func dmsToDecimal(deg, min, sec float64) float64 {
	return deg + min/60 + sec/3600
}

func exifString(x *exif.Exif, field exif.FieldName) (string, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return "", false
	}
	s, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	// EXIF strings frequently carry trailing NULs or padding
	return strings.TrimRight(s, "\x00 "), true
}

func exifFloat(x *exif.Exif, field exif.FieldName) (float64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

func exifInt(x *exif.Exif, field exif.FieldName) (int, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	n, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return n, true
}

// formatShutterSpeed renders an exposure time the way photographers read
// it: fractional exposures as "1/Ns", full-second exposures as "<t>s"
// with at least one decimal place.
func formatShutterSpeed(t float64) string {
	if t <= 0 {
		return ""
	}
	if t < 1 {
		return "1/" + strconv.Itoa(int(math.Round(1/t))) + "s"
	}
	if t == math.Trunc(t) {
		return strconv.FormatFloat(t, 'f', 1, 64) + "s"
	}
	return formatFloat(t) + "s"
}

// formatFloat renders a float in its shortest exact decimal form.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
