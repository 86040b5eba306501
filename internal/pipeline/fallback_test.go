package pipeline

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/visionpipe/visionpipe/internal/model"
)

// mockEngine is a hand-rolled engine fake. Frames are identified by
// image width so tests can target failures at specific frames.
type mockEngine struct {
	mu          sync.Mutex
	batchCalls  int
	singleCalls int

	// batchErr fails every PredictBatch call at the batch level.
	batchErr error

	// failWidths fails PredictSingle for images of these widths.
	failWidths map[int]bool
}

func (m *mockEngine) PredictSingle(_ context.Context, img image.Image) (*model.Result, error) {
	m.mu.Lock()
	m.singleCalls++
	m.mu.Unlock()

	w := img.Bounds().Dx()
	if m.failWidths[w] {
		return nil, errors.New("mock per-image failure")
	}
	return &model.Result{Width: w, Height: img.Bounds().Dy()}, nil
}

func (m *mockEngine) PredictBatch(_ context.Context, images []image.Image) ([]*model.Result, error) {
	m.mu.Lock()
	m.batchCalls++
	m.mu.Unlock()

	if m.batchErr != nil {
		return nil, m.batchErr
	}

	results := make([]*model.Result, len(images))
	for i, img := range images {
		results[i] = &model.Result{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	}
	return results, nil
}

func (m *mockEngine) calls() (batch, single int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls, m.singleCalls
}

// discardLogger silences test log output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// batchOf builds a batch of distinct-width images with matching metas.
func batchOf(start, n int) ([]image.Image, []model.FrameMeta) {
	images := make([]image.Image, n)
	metas := make([]model.FrameMeta, n)
	for i := range images {
		images[i] = image.NewRGBA(image.Rect(0, 0, 10+start+i, 8))
		metas[i] = model.FrameMeta{FrameIndex: start + i, TotalFrames: start + n}
	}
	return images, metas
}

// TestFallbackInferencer tests the one-way degradation latch.
func TestFallbackInferencer(t *testing.T) {
	t.Parallel()

	t.Run("uses batched inference while it succeeds", func(t *testing.T) {
		t.Parallel()

		eng := &mockEngine{}
		f := newFallbackInferencer(eng, discardLogger())

		images, metas := batchOf(0, 4)
		results := f.inferBatch(context.Background(), images, metas)

		if len(results) != 4 {
			t.Fatalf("expected 4 results, got %d", len(results))
		}
		for i, res := range results {
			if res == nil {
				t.Errorf("result %d unexpectedly nil", i)
			}
		}
		batch, single := eng.calls()
		if batch != 1 || single != 0 {
			t.Errorf("expected 1 batch call and 0 single calls, got %d and %d", batch, single)
		}
	})

	t.Run("first batch failure degrades the rest of the run", func(t *testing.T) {
		t.Parallel()

		eng := &mockEngine{batchErr: errors.New("variable batch size rejected")}
		f := newFallbackInferencer(eng, discardLogger())

		for start := 0; start < 12; start += 4 {
			images, metas := batchOf(start, 4)
			results := f.inferBatch(context.Background(), images, metas)
			for i, res := range results {
				if res == nil {
					t.Errorf("frame %d unexpectedly dropped", start+i)
				}
			}
		}

		// Only the first batch attempts the batched call. The latch skips
		// it for every later batch.
		batch, single := eng.calls()
		if batch != 1 {
			t.Errorf("expected exactly 1 batched attempt, got %d", batch)
		}
		if single != 12 {
			t.Errorf("expected 12 per-image calls, got %d", single)
		}
	})

	t.Run("per-image failure after fallback drops only that frame", func(t *testing.T) {
		t.Parallel()

		eng := &mockEngine{
			batchErr:   errors.New("batch failure"),
			failWidths: map[int]bool{11: true},
		}
		f := newFallbackInferencer(eng, discardLogger())

		images, metas := batchOf(0, 4)
		results := f.inferBatch(context.Background(), images, metas)

		if len(results) != 4 {
			t.Fatalf("expected 4 entries, got %d", len(results))
		}
		for i, res := range results {
			if i == 1 && res != nil {
				t.Error("expected frame 1 dropped")
			}
			if i != 1 && res == nil {
				t.Errorf("frame %d unexpectedly dropped", i)
			}
		}
	})

	t.Run("empty batch yields no results and no calls", func(t *testing.T) {
		t.Parallel()

		eng := &mockEngine{}
		f := newFallbackInferencer(eng, discardLogger())

		if results := f.inferBatch(context.Background(), nil, nil); results != nil {
			t.Errorf("expected nil results, got %v", results)
		}
		batch, single := eng.calls()
		if batch != 0 || single != 0 {
			t.Errorf("expected no engine calls, got %d batch %d single", batch, single)
		}
	})
}
