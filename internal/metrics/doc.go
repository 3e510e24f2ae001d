// Package metrics defines the Prometheus metrics exported by the importer.
//
// Metrics are registered via promauto at package init and exposed by the
// status server's /metrics endpoint.
package metrics
