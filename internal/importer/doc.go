// Package importer orchestrates the batch import pipeline: scan the
// source tree, then for each file hash, dedup, copy, thumbnail, extract
// metadata, classify, and persist, advancing the shared progress file
// after every attempt.
//
// Processing is strictly sequential, one file at a time. Errors are
// caught at the item boundary and folded into per-item outcomes; the run
// itself only fails if the source tree cannot be scanned at all.
package importer
