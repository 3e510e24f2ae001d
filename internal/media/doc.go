// Package media implements the file-level building blocks of the import
// pipeline: directory scanning, streaming content hashing, EXIF metadata
// extraction, and thumbnail generation.
package media
