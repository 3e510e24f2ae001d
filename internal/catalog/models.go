package catalog

import "time"

// ImageRecord is one catalog entry per distinct content hash. The hash is
// globally unique: re-importing the same bytes from a different path never
// creates a second record.
type ImageRecord struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	OriginalPath  string    `json:"originalPath"`
	Hash          string    `json:"hash"`
	ThumbnailName string    `json:"thumbnailName"`
	Tags          []string  `json:"tags"`
	DateTaken     string    `json:"dateTaken,omitempty"` // RFC 3339, empty = unknown
	CameraModel   string    `json:"cameraModel,omitempty"`
	Lens          string    `json:"lens,omitempty"`
	Aperture      string    `json:"aperture,omitempty"`
	ShutterSpeed  string    `json:"shutterSpeed,omitempty"`
	ISO           string    `json:"iso,omitempty"`
	FocalLength   string    `json:"focalLength,omitempty"`
	GPS           string    `json:"gps,omitempty"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TagCount tracks how many ImageRecords currently list a tag.
type TagCount struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListOptions filters and paginates catalog listings for the read-side
// collaborator (the browsing UI).
type ListOptions struct {
	// Tag filters to records whose tag set contains this exact tag.
	Tag string
	// Search filters to records whose tag list matches this substring.
	Search string
	// Page is the zero-based page index.
	Page int
	// PerPage is the page size (default 50).
	PerPage int
}
