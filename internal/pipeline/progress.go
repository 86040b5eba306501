package pipeline

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// progress wraps the terminal progress bar used by the collect stage.
// A nil progress is a valid no-op reporter, used when the run has zero
// frames or reporting is disabled.
type progress struct {
	bar *progressbar.ProgressBar
}

// newProgress creates a progress reporter over total frames writing to
// stderr. It returns a no-op reporter when total is zero or reporting is
// disabled.
func newProgress(total int, enabled bool) *progress {
	if !enabled || total <= 0 {
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("predict"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return &progress{bar: bar}
}

// Add advances the bar by n frames.
func (p *progress) Add(n int) {
	if p == nil {
		return
	}
	_ = p.bar.Add(n)
}

// Finish completes the bar and clears it from the terminal.
func (p *progress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
