package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/visionpipe/visionpipe/internal/annotate"
	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/source"
)

// writeFixtureDir writes n PNG frames named img_00.png, img_01.png, ...
// Frame i has width 10+i so the mock engine can target specific frames.
func writeFixtureDir(t *testing.T, n int) string {
	t.Helper()

	dir := t.TempDir()
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 10+i, 8))
		path := filepath.Join(dir, fmt.Sprintf("img_%02d.png", i))

		f, err := os.Create(path) //nolint:gosec // Test-owned temp path
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		if err := f.Close(); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// countPNGs counts the PNG files in a directory.
func countPNGs(t *testing.T, dir string) int {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".png" {
			n++
		}
	}
	return n
}

// TestNewRunner tests runner construction.
func TestNewRunner(t *testing.T) {
	t.Parallel()

	t.Run("nil engine is rejected", func(t *testing.T) {
		t.Parallel()

		if _, err := NewRunner(nil); !errors.Is(err, ErrNoEngine) {
			t.Errorf("expected ErrNoEngine, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		r, err := NewRunner(&mockEngine{})
		if err != nil {
			t.Fatal(err)
		}
		if r.strategy != BatchChannelPipeline {
			t.Errorf("expected default strategy batch-channel-pipeline, got %s", r.strategy)
		}
		if r.batchSize != 4 || r.channelCapacity != 8 {
			t.Errorf("unexpected defaults: batch %d capacity %d", r.batchSize, r.channelCapacity)
		}
		if r.annotate || r.retainResults {
			t.Error("annotation and retention must default off")
		}
	})

	t.Run("invalid sizes are ignored", func(t *testing.T) {
		t.Parallel()

		r, err := NewRunner(&mockEngine{}, WithBatchSize(0), WithChannelCapacity(-1))
		if err != nil {
			t.Fatal(err)
		}
		if r.batchSize != 4 || r.channelCapacity != 8 {
			t.Errorf("expected defaults kept, got batch %d capacity %d", r.batchSize, r.channelCapacity)
		}
	})
}

// TestRunnerStrategies runs the same directory through every strategy
// and checks the shared postconditions.
func TestRunnerStrategies(t *testing.T) {
	t.Parallel()

	const frames = 10

	tests := []struct {
		strategy      Strategy
		wantBatchSize int
	}{
		{Sequential, 1},
		{BatchSequential, 4},
		{ChannelPipeline, 1},
		{BatchChannelPipeline, 4},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.strategy.String(), func(t *testing.T) {
			t.Parallel()

			dir := writeFixtureDir(t, frames)
			saveDir := filepath.Join(t.TempDir(), "out")

			r, err := NewRunner(&mockEngine{},
				WithStrategy(tt.strategy),
				WithBatchSize(4),
				WithAnnotator(nil, annotate.Config{ShowBox: true}),
				WithSaveDir(saveDir),
				WithRetainResults(true),
				WithRunnerLogger(discardLogger()),
			)
			if err != nil {
				t.Fatal(err)
			}

			results, summary, err := r.Run(context.Background(), source.FromPath(dir))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(results) != frames {
				t.Errorf("expected %d results, got %d", frames, len(results))
			}
			for i, fr := range results {
				if fr.Meta.FrameIndex != i {
					t.Errorf("result %d carries frame index %d", i, fr.Meta.FrameIndex)
				}
				if fr.Result == nil {
					t.Errorf("result %d has no outcome", i)
				}
				if fr.Annotated == nil {
					t.Errorf("result %d has no annotated image", i)
				}
			}

			if got := countPNGs(t, saveDir); got != frames {
				t.Errorf("expected %d persisted files, got %d", frames, got)
			}

			if summary.Strategy != tt.strategy.String() {
				t.Errorf("summary strategy %q, want %q", summary.Strategy, tt.strategy)
			}
			if summary.BatchSize != tt.wantBatchSize {
				t.Errorf("summary batch size %d, want %d", summary.BatchSize, tt.wantBatchSize)
			}
			if summary.TotalFrames != frames || summary.Processed != frames || summary.Dropped != 0 {
				t.Errorf("unexpected summary counts: %+v", summary)
			}
		})
	}
}

// TestRunnerSingleImageForcesSequential tests the strategy override for
// single-image sources.
func TestRunnerSingleImageForcesSequential(t *testing.T) {
	t.Parallel()

	eng := &mockEngine{}
	r, err := NewRunner(eng,
		WithStrategy(BatchChannelPipeline),
		WithRetainResults(true),
		WithRunnerLogger(discardLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	img := image.NewRGBA(image.Rect(0, 0, 10, 8))
	results, summary, err := r.Run(context.Background(), source.FromImage(img))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Strategy != Sequential.String() {
		t.Errorf("expected sequential, got %s", summary.Strategy)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
	batch, single := eng.calls()
	if batch != 0 || single != 1 {
		t.Errorf("expected 0 batch and 1 single call, got %d and %d", batch, single)
	}
}

// TestRunnerDropsFrames tests the per-frame recoverable error policy.
func TestRunnerDropsFrames(t *testing.T) {
	t.Parallel()

	t.Run("undecodable file is skipped", func(t *testing.T) {
		t.Parallel()

		dir := writeFixtureDir(t, 5)
		corrupt := filepath.Join(dir, "img_01a.png")
		if err := os.WriteFile(corrupt, []byte("not a png"), 0o600); err != nil {
			t.Fatal(err)
		}

		r, err := NewRunner(&mockEngine{},
			WithStrategy(Sequential),
			WithRetainResults(true),
			WithRunnerLogger(discardLogger()),
		)
		if err != nil {
			t.Fatal(err)
		}

		results, summary, err := r.Run(context.Background(), source.FromPath(dir))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 5 {
			t.Errorf("expected 5 surviving frames, got %d", len(results))
		}
		if summary.TotalFrames != 6 || summary.Processed != 5 || summary.Dropped != 1 {
			t.Errorf("unexpected summary counts: %+v", summary)
		}
	})

	t.Run("inference failure drops only that frame", func(t *testing.T) {
		t.Parallel()

		dir := writeFixtureDir(t, 5)
		eng := &mockEngine{failWidths: map[int]bool{12: true}}

		r, err := NewRunner(eng,
			WithStrategy(Sequential),
			WithRetainResults(true),
			WithRunnerLogger(discardLogger()),
		)
		if err != nil {
			t.Fatal(err)
		}

		results, summary, err := r.Run(context.Background(), source.FromPath(dir))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 4 || summary.Dropped != 1 {
			t.Errorf("expected 4 survivors and 1 drop, got %d and %d", len(results), summary.Dropped)
		}
		for _, fr := range results {
			if fr.Meta.FrameIndex == 2 {
				t.Error("failed frame 2 surfaced in results")
			}
		}
	})

	t.Run("annotation failure drops only that frame", func(t *testing.T) {
		t.Parallel()

		dir := writeFixtureDir(t, 5)
		failOn12 := func(img image.Image, res *model.Result, cfg annotate.Config) (image.Image, error) {
			if img.Bounds().Dx() == 12 {
				return nil, errors.New("mock annotation failure")
			}
			return annotate.Passthrough(img, res, cfg)
		}

		r, err := NewRunner(&mockEngine{},
			WithStrategy(ChannelPipeline),
			WithAnnotator(failOn12, annotate.Config{}),
			WithRetainResults(true),
			WithRunnerLogger(discardLogger()),
		)
		if err != nil {
			t.Fatal(err)
		}

		results, summary, err := r.Run(context.Background(), source.FromPath(dir))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 4 || summary.Dropped != 1 {
			t.Errorf("expected 4 survivors and 1 drop, got %d and %d", len(results), summary.Dropped)
		}
	})

	t.Run("batch failure degrades without losing frames", func(t *testing.T) {
		t.Parallel()

		dir := writeFixtureDir(t, 10)
		eng := &mockEngine{batchErr: errors.New("batch rejected")}

		r, err := NewRunner(eng,
			WithStrategy(BatchChannelPipeline),
			WithBatchSize(4),
			WithRetainResults(true),
			WithRunnerLogger(discardLogger()),
		)
		if err != nil {
			t.Fatal(err)
		}

		results, summary, err := r.Run(context.Background(), source.FromPath(dir))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 10 || summary.Dropped != 0 {
			t.Errorf("expected all 10 frames to survive, got %d with %d drops", len(results), summary.Dropped)
		}

		// The latch allows exactly one batched attempt per run.
		batch, single := eng.calls()
		if batch != 1 {
			t.Errorf("expected exactly 1 batched attempt, got %d", batch)
		}
		if single != 10 {
			t.Errorf("expected 10 per-image calls, got %d", single)
		}
	})
}

// TestRunnerRetention tests the retention flag.
func TestRunnerRetention(t *testing.T) {
	t.Parallel()

	dir := writeFixtureDir(t, 6)
	r, err := NewRunner(&mockEngine{},
		WithStrategy(BatchSequential),
		WithBatchSize(4),
		WithRunnerLogger(discardLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	results, summary, err := r.Run(context.Background(), source.FromPath(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results without retention, got %d", len(results))
	}
	if summary.Processed != 6 {
		t.Errorf("expected 6 processed frames, got %d", summary.Processed)
	}
}

// TestRunnerSaveDir tests destination directory handling.
func TestRunnerSaveDir(t *testing.T) {
	t.Parallel()

	t.Run("stale output is wiped before the run", func(t *testing.T) {
		t.Parallel()

		dir := writeFixtureDir(t, 2)
		saveDir := t.TempDir()
		stale := filepath.Join(saveDir, "stale.png")
		if err := os.WriteFile(stale, []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}

		r, err := NewRunner(&mockEngine{},
			WithStrategy(Sequential),
			WithAnnotator(nil, annotate.Config{}),
			WithSaveDir(saveDir),
			WithRunnerLogger(discardLogger()),
		)
		if err != nil {
			t.Fatal(err)
		}

		if _, _, err := r.Run(context.Background(), source.FromPath(dir)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(stale); !os.IsNotExist(err) {
			t.Error("expected stale file removed")
		}
		if got := countPNGs(t, saveDir); got != 2 {
			t.Errorf("expected 2 persisted files, got %d", got)
		}
	})

	t.Run("nothing is persisted with annotation off", func(t *testing.T) {
		t.Parallel()

		dir := writeFixtureDir(t, 3)
		saveDir := filepath.Join(t.TempDir(), "out")

		r, err := NewRunner(&mockEngine{},
			WithStrategy(Sequential),
			WithSaveDir(saveDir),
			WithRunnerLogger(discardLogger()),
		)
		if err != nil {
			t.Fatal(err)
		}

		_, summary, err := r.Run(context.Background(), source.FromPath(dir))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if summary.Processed != 3 {
			t.Errorf("expected 3 processed frames, got %d", summary.Processed)
		}
		if got := countPNGs(t, saveDir); got != 0 {
			t.Errorf("expected no persisted files, got %d", got)
		}
	})
}

// TestRunnerCancellation tests that sequential strategies stop between
// frames when the context is done.
func TestRunnerCancellation(t *testing.T) {
	t.Parallel()

	dir := writeFixtureDir(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewRunner(&mockEngine{},
		WithStrategy(Sequential),
		WithRunnerLogger(discardLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := r.Run(ctx, source.FromPath(dir)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
