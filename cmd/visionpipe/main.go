// Package main provides the entry point for the visionpipe CLI.
//
// visionpipe runs image batches through a remote inference engine and
// collects, annotates, and persists the per-frame detection results.
//
// Usage:
//
//	visionpipe predict <image-or-directory>...
//	visionpipe history
//
// See --help for all available options.
package main

// main is the entry point for visionpipe.
func main() {
	Execute()
}
