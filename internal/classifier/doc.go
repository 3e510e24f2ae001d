// Package classifier obtains single-word tags for an image from a remote
// vision model (an Ollama-compatible generate endpoint).
//
// The client is deliberately infallible: a flaky or unreachable endpoint
// degrades to a sentinel tag set ("uncategorized" or "error") after a
// bounded retry budget, so one bad remote call never fails an import item.
package classifier
