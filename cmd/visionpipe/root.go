// Package main provides the entry point for the visionpipe CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for visionpipe.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visionpipe",
		Short: "Batch and streaming inference pipeline for image sources",
		Long: `visionpipe resolves image files and directories into frame sequences,
runs them through a remote inference engine, and collects the per-frame
detection results. Frames can be annotated and persisted as PNG files.

Four execution strategies are available, from simple sequential
processing to a fully concurrent staged pipeline with batched inference.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewPredictCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
