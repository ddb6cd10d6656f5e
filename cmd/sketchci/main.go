package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "compile":
		runCompile(ctx, os.Args[2:])
	case "trends":
		runTrends(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sketchci - Compile sketches and report memory usage changes

Usage:
  sketchci <command> [options]

Commands:
  compile  Compile sketches for a board and write the sketches report
  trends   Record a sketches report into the local size trends database

Use "sketchci <command> --help" for more information about a command.`)
}
