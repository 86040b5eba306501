package model

import (
	"testing"
	"time"
)

// TestFrameMetaStem tests file-stem derivation for persisted artifacts.
func TestFrameMetaStem(t *testing.T) {
	t.Parallel()

	t.Run("uses file stem when source path exists", func(t *testing.T) {
		t.Parallel()

		meta := FrameMeta{FrameIndex: 3, TotalFrames: 10, SourcePath: "/data/images/cat.jpg"}
		if got := meta.Stem(); got != "cat" {
			t.Errorf("expected stem %q, got %q", "cat", got)
		}
	})

	t.Run("strips only the last extension", func(t *testing.T) {
		t.Parallel()

		meta := FrameMeta{SourcePath: "/data/archive.tar.png"}
		if got := meta.Stem(); got != "archive.tar" {
			t.Errorf("expected stem %q, got %q", "archive.tar", got)
		}
	})

	t.Run("falls back to frame index without a path", func(t *testing.T) {
		t.Parallel()

		meta := FrameMeta{FrameIndex: 7, TotalFrames: 10}
		if got := meta.Stem(); got != "frame_7" {
			t.Errorf("expected stem %q, got %q", "frame_7", got)
		}
	})
}

// TestFrameMetaName tests log-facing frame names.
func TestFrameMetaName(t *testing.T) {
	t.Parallel()

	t.Run("uses file name when source path exists", func(t *testing.T) {
		t.Parallel()

		meta := FrameMeta{FrameIndex: 0, SourcePath: "/data/images/dog.png"}
		if got := meta.Name(); got != "dog.png" {
			t.Errorf("expected name %q, got %q", "dog.png", got)
		}
	})

	t.Run("falls back to frame index without a path", func(t *testing.T) {
		t.Parallel()

		meta := FrameMeta{FrameIndex: 2}
		if got := meta.Name(); got != "frame_2" {
			t.Errorf("expected name %q, got %q", "frame_2", got)
		}
	})
}

// TestRunSummaryFinish tests drop accounting.
func TestRunSummaryFinish(t *testing.T) {
	t.Parallel()

	t.Run("computes dropped frames", func(t *testing.T) {
		t.Parallel()

		s := NewRunSummary("sequential", "dir:/tmp/images", 1, 10)
		s.Finish(7)

		if s.Processed != 7 {
			t.Errorf("expected 7 processed, got %d", s.Processed)
		}
		if s.Dropped != 3 {
			t.Errorf("expected 3 dropped, got %d", s.Dropped)
		}
		if s.Duration < 0 {
			t.Errorf("expected non-negative duration, got %v", s.Duration)
		}
	})

	t.Run("clamps dropped to zero when all frames processed", func(t *testing.T) {
		t.Parallel()

		s := NewRunSummary("sequential", "image:/a.png", 1, 1)
		s.Finish(1)

		if s.Dropped != 0 {
			t.Errorf("expected 0 dropped, got %d", s.Dropped)
		}
	})

	t.Run("records start time", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		s := NewRunSummary("channel-pipeline", "paths:3", 4, 3)
		if s.StartedAt.Before(before.Add(-time.Second)) {
			t.Errorf("unexpected start time: %v", s.StartedAt)
		}
	})
}
