package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/visionpipe/visionpipe/internal/config"
	"github.com/visionpipe/visionpipe/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded prediction runs",
		Long: `History lists the prediction runs recorded in the local database,
most recent first. Use --id to show the frame details of one run.

Examples:
  # List all recorded runs
  visionpipe history

  # Show one run with its frames
  visionpipe history --id 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64("id", 0, "Show the frames of the run with this ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	db, err := database.Open(config.XDGDataDir(), database.Options{EnableWAL: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil //nolint:nilerr // A missing database simply means no history
	}
	defer db.Close() //nolint:errcheck // Best effort cleanup

	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	if id > 0 {
		return showRun(cmd, db, id)
	}

	return listRuns(cmd, db)
}

// listRuns prints one line per recorded run.
func listRuns(cmd *cobra.Command, db *database.RunDB) error {
	runs, err := db.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-20s %-24s %-10s %-8s %s\n",
		"ID", "STARTED", "STRATEGY", "PROCESSED", "DROPPED", "SOURCE")
	for _, r := range runs {
		fmt.Fprintf(out, "%-5d %-20s %-24s %-10d %-8d %s\n",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Strategy,
			r.Processed,
			r.Dropped,
			r.Source,
		)
	}

	return nil
}

// showRun prints one run with its frame records.
func showRun(cmd *cobra.Command, db *database.RunDB, id int64) error {
	rec, frames, err := db.GetRun(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("run %d not found", id)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d\n", rec.ID)
	fmt.Fprintf(out, "  Started:   %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Strategy:  %s\n", rec.Strategy)
	fmt.Fprintf(out, "  Source:    %s\n", rec.Source)
	fmt.Fprintf(out, "  Frames:    %d total, %d processed, %d dropped\n",
		rec.TotalFrames, rec.Processed, rec.Dropped)
	fmt.Fprintf(out, "  Duration:  %s\n", rec.Duration.Round(time.Millisecond))
	if rec.SaveDir != "" {
		fmt.Fprintf(out, "  Save Dir:  %s\n", rec.SaveDir)
	}

	if len(frames) == 0 {
		fmt.Fprintln(out, "  No frame records (run was not retained)")
		return nil
	}

	fmt.Fprintln(out, "  Frames:")
	for _, fr := range frames {
		detections := 0
		if fr.Result != nil {
			detections = len(fr.Result.Detections)
		}
		fmt.Fprintf(out, "    [%d] %s: %d detection(s)\n", fr.FrameIndex, fr.Name, detections)
	}

	return nil
}
