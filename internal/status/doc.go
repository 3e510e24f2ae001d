// Package status serves the importer's progress and metrics over a
// small local HTTP endpoint.
package status
