package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/visionpipe/visionpipe/internal/model"
)

// MarkdownWriter outputs run reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run report in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary, results []model.FrameResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeAlert(md, summary)
	w.writeFrames(md, results)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Prediction Run Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Source", "`" + summary.Source + "`"},
			{"Strategy", summary.Strategy},
			{"Batch Size", strconv.Itoa(summary.BatchSize)},
			{"Total Frames", strconv.Itoa(summary.TotalFrames)},
			{"Processed", strconv.Itoa(summary.Processed)},
			{"Dropped", strconv.Itoa(summary.Dropped)},
			{"Duration", summary.Duration.String()},
			{"Save Dir", w.orDash(summary.SaveDir)},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
}

// writeAlert writes an alert reflecting the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.TotalFrames == 0:
		md.Note("The source yielded no frames.")
	case summary.Dropped > 0:
		md.Warningf("%d of %d frame(s) were dropped during this run.",
			summary.Dropped, summary.TotalFrames)
	default:
		md.Tip(fmt.Sprintf("All %d frame(s) processed successfully.", summary.TotalFrames))
	}
	md.PlainText("")
}

// writeFrames writes the per-frame results table.
func (w *MarkdownWriter) writeFrames(md *markdown.Markdown, results []model.FrameResult) {
	md.H2("Frames")
	md.PlainText("")

	if len(results) == 0 {
		md.PlainText("No frame results retained.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(results))
	for i, fr := range results {
		rows[i] = []string{
			strconv.Itoa(fr.Meta.FrameIndex),
			truncateString(fr.Meta.Name(), 40),
			strconv.Itoa(len(fr.Result.Detections)),
			w.topDetection(fr.Result),
			w.captureText(fr.Meta.Capture),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Index", "Frame", "Detections", "Top Detection", "Captured"},
		Rows:   rows,
	})
	md.PlainText("")
}

// topDetection renders the most confident detection of a frame.
func (w *MarkdownWriter) topDetection(res *model.Result) string {
	if res == nil || len(res.Detections) == 0 {
		return "-"
	}

	top := res.Detections[0]
	for _, d := range res.Detections[1:] {
		if d.Confidence > top.Confidence {
			top = d
		}
	}
	return fmt.Sprintf("%s (%.2f)", top.Class, top.Confidence)
}

// captureText renders the EXIF capture info of a frame.
func (w *MarkdownWriter) captureText(c *model.CaptureInfo) string {
	if c == nil {
		return "-"
	}
	text := ""
	if !c.Timestamp.IsZero() {
		text = c.Timestamp.Format("2006-01-02 15:04:05")
	}
	if c.CameraModel != "" {
		if text != "" {
			text += ", "
		}
		text += c.CameraModel
	}
	return w.orDash(text)
}

// orDash substitutes a dash for empty table cells.
func (w *MarkdownWriter) orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by visionpipe*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
