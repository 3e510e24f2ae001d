// Command catalogctl inspects and repairs importer state from the
// command line: show or clear the shared progress file and print catalog
// statistics. The clear command is the manual override for a run whose
// progress record is stuck.
package main
