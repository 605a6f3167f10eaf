// Package main is the entry point for Mindnoscape. One binary serves the
// mind map API, runs the terminal editor against it, and follows the logs.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
