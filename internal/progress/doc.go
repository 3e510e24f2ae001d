// Package progress maintains the shared progress file that lets the
// browsing UI display import status and lets a restarted importer decide
// whether a previous run is still alive.
package progress
