package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/visionpipe/visionpipe/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display after a run completes.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-frame listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-frame listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run report in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary, results []model.FrameResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	if w.verbose {
		w.writeFrames(&sb, results)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run summary block.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       PREDICTION RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Source:     %s\n", summary.Source))
	sb.WriteString(fmt.Sprintf("Strategy:   %s\n", summary.Strategy))
	sb.WriteString(fmt.Sprintf("Batch Size: %d\n", summary.BatchSize))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", summary.Duration))
	if summary.SaveDir != "" {
		sb.WriteString(fmt.Sprintf("Save Dir:   %s\n", summary.SaveDir))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  FRAMES:    %d\n", summary.TotalFrames))
	sb.WriteString(fmt.Sprintf("  PROCESSED: %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("  DROPPED:   %d\n", summary.Dropped))
	sb.WriteString("\n")
}

// writeFrames writes the per-frame listing.
func (w *SimpleWriter) writeFrames(sb *strings.Builder, results []model.FrameResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FRAMES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(results) == 0 {
		sb.WriteString("  No frame results retained\n\n")
		return
	}

	for _, fr := range results {
		detections := 0
		if fr.Result != nil {
			detections = len(fr.Result.Detections)
		}
		sb.WriteString(fmt.Sprintf("  [%d] %s: %d detection(s)\n",
			fr.Meta.FrameIndex, fr.Meta.Name(), detections))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by visionpipe\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
