// Package mediatypes defines which file extensions the importer accepts
// and their MIME types.
package mediatypes
