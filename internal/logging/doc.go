// Package logging provides leveled logging for the importer.
//
// The log level is controlled by the DEBUG and LOG_LEVEL environment
// variables. All output goes to stderr; SetOutputFile additionally tees
// every line to an append-only log file so that per-item import outcomes
// survive the process and can be inspected by external tooling.
package logging
