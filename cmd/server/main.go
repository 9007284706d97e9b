// Package main is the querytask server: an HTTP API that accepts SQL query
// and long-running jobs, runs them on background workers and lets clients
// poll their progress.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
