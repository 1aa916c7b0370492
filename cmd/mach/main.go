// Package main is the entry point for the mach CLI.
//
// Usage:
//
//	mach [flags] <command> [args]
//
// Commands:
//
//	render    - Render an interactive 3D audio map to HTML, JSON or MessagePack
//	analyze   - Print the analysis summary of a recording
//	batch     - Analyze every supported file under a directory
//	features  - Export per-frame features to CSV, Parquet or MessagePack
//	serve     - Run the HTTP server
//	presets   - List visualization presets
//	version   - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-mach/cmd/mach/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
