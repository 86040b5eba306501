package model

import "time"

// RunSummary holds the aggregate statistics for one pipeline invocation.
// It is written to the run database after every invocation and is the
// top-level object of Markdown and JSON reports.
type RunSummary struct {
	// Strategy is the pipeline strategy that actually ran. This may differ
	// from the configured strategy: single-image sources always run
	// sequentially.
	Strategy string `json:"strategy"`

	// Source is a human-readable description of the input source.
	Source string `json:"source"`

	// BatchSize is the inference batch size (1 for unbatched strategies).
	BatchSize int `json:"batch_size"`

	// TotalFrames is the frame count declared by the source enumerator
	// before processing started. An upper bound when decoding can fail.
	TotalFrames int `json:"total_frames"`

	// Processed is the number of frames that reached the collect stage.
	Processed int `json:"processed"`

	// Dropped is TotalFrames - Processed: frames lost to decode, inference,
	// annotation, or save failures. Each drop is logged when it happens.
	Dropped int `json:"dropped"`

	// StartedAt is when the invocation began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the total wall-clock time of the invocation.
	Duration time.Duration `json:"duration"`

	// SaveDir is the destination directory for annotated images, empty
	// when persistence was not requested.
	SaveDir string `json:"save_dir,omitempty"`
}

// NewRunSummary creates a RunSummary for an invocation starting now.
func NewRunSummary(strategy, source string, batchSize, totalFrames int) *RunSummary {
	return &RunSummary{
		Strategy:    strategy,
		Source:      source,
		BatchSize:   batchSize,
		TotalFrames: totalFrames,
		StartedAt:   time.Now(),
	}
}

// Finish records the processed count and computes Dropped and Duration.
func (s *RunSummary) Finish(processed int) {
	s.Processed = processed
	s.Dropped = s.TotalFrames - processed
	if s.Dropped < 0 {
		s.Dropped = 0
	}
	s.Duration = time.Since(s.StartedAt)
}
