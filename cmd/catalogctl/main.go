package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photo-catalog/internal/catalog"
	"photo-catalog/internal/progress"
)

const (
	// Default database directory path
	defaultDatabaseDir = "/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	reporter := progress.NewReporter(filepath.Join(databaseDir, "import_progress.json"))

	switch command {
	case "progress":
		if !showProgress(reporter) {
			os.Exit(1)
		}
	case "clear":
		if !clearProgress(reporter) {
			os.Exit(1)
		}
	case "stats":
		if !showStats(databaseDir) {
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: catalogctl <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  progress   Show the current import progress record")
	fmt.Fprintln(os.Stderr, "  clear      Remove the progress record (manual override for a stuck run)")
	fmt.Fprintln(os.Stderr, "  stats      Show catalog record and tag counts")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment:")
	fmt.Fprintln(os.Stderr, "  DATABASE_DIR   Directory holding catalog.db and import_progress.json (default: /database)")
}

func showProgress(reporter *progress.Reporter) bool {
	p, err := reporter.Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read progress file: %v\n", err)
		return false
	}
	if p == nil {
		fmt.Println("No progress file found; no import has run yet.")
		return true
	}

	updated := time.Unix(int64(p.Timestamp), 0)
	fmt.Printf("Status:   %s\n", p.Status)
	fmt.Printf("Progress: %d/%d\n", p.Current, p.Total)
	fmt.Printf("Updated:  %s (%s ago)\n", updated.Format(time.RFC1123), time.Since(updated).Round(time.Second))

	if p.Status != progress.StatusCompleted {
		if reporter.IsLikelyRunning() {
			fmt.Println("An import appears to be running.")
		} else {
			fmt.Println("The previous run went stale and has been marked completed.")
		}
	}
	return true
}

func clearProgress(reporter *progress.Reporter) bool {
	if err := reporter.Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to clear progress file: %v\n", err)
		return false
	}
	fmt.Println("Progress file cleared.")
	return true
}

func showStats(databaseDir string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := catalog.New(ctx, filepath.Join(databaseDir, "catalog.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open catalog: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		return false
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	_, total, err := store.ListImages(ctx, catalog.ListOptions{PerPage: 1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to count images: %v\n", err)
		return false
	}
	tags, err := store.AllTags(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list tags: %v\n", err)
		return false
	}

	fmt.Printf("Images: %d\n", total)
	fmt.Printf("Tags:   %d\n", len(tags))
	if len(tags) > 0 {
		fmt.Println("\nTop tags:")
		limit := 10
		if len(tags) < limit {
			limit = len(tags)
		}
		for _, tc := range tags[:limit] {
			fmt.Printf("  %-20s %d\n", tc.Name, tc.Count)
		}
	}
	return true
}
