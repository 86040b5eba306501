package pipeline

import (
	"context"

	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/source"
)

// runSequential processes one frame at a time on the caller goroutine:
// decode, infer, annotate, persist, collect, then the next frame.
// Cancellation is honored between frames.
func (r *Runner) runSequential(ctx context.Context, src source.Source) ([]model.FrameResult, *model.RunSummary, error) {
	loader, err := source.NewLoader(src, r.loaderOptions()...)
	if err != nil {
		return nil, nil, err
	}

	summary := model.NewRunSummary(Sequential.String(), src.String(), 1, loader.Len())
	bar := newProgress(loader.Len(), r.showProgress)

	var results []model.FrameResult
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		img, meta, ok := loader.Next()
		if !ok {
			break
		}

		res := r.inferOne(ctx, img, meta)
		if res == nil {
			continue
		}

		fr, ok := r.finishFrame(img, meta, res)
		if !ok {
			continue
		}

		processed++
		bar.Add(1)
		if r.retainResults {
			results = append(results, fr)
		}
	}

	bar.Finish()
	summary.Finish(processed)
	return results, summary, nil
}
