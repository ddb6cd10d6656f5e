package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ochairo/sketchci/internal/domain/entities"
	"github.com/ochairo/sketchci/internal/external-adapters/sqlite"
)

func runTrends(args []string) {
	fs := pflag.NewFlagSet("trends", pflag.ExitOnError)
	var (
		reportPath = fs.String("report", "", "Path to a sketches report JSON file")
		dbPath     = fs.String("db", "size-trends.db", "Path to the size trends database")
	)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *reportPath == "" {
		fmt.Fprintln(os.Stderr, "the --report flag is required")
		fs.Usage()
		os.Exit(1)
	}

	//nolint:gosec // G304: report path is a user-provided CLI argument
	data, err := os.ReadFile(*reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read report: %v\n", err)
		os.Exit(1)
	}
	var report entities.SketchesReport
	if err := json.Unmarshal(data, &report); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse report: %v\n", err)
		os.Exit(1)
	}

	store, err := sqlite.OpenTrendsStore(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	rows, err := store.RecordReport(&report)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Recorded %d size figures from %s\n", rows, *reportPath)
}
