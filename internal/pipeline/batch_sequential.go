package pipeline

import (
	"context"

	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/source"
)

// runBatchSequential processes one batch at a time on the caller
// goroutine. Batched inference degrades to per-image inference for the
// rest of the run after the first batch-level failure. Cancellation is
// honored between batches.
func (r *Runner) runBatchSequential(ctx context.Context, src source.Source) ([]model.FrameResult, *model.RunSummary, error) {
	loader, err := source.NewBatchLoader(src, r.batchSize, r.loaderOptions()...)
	if err != nil {
		return nil, nil, err
	}

	summary := model.NewRunSummary(BatchSequential.String(), src.String(), loader.BatchSize(), loader.TotalFrames())
	bar := newProgress(loader.TotalFrames(), r.showProgress)
	inferencer := newFallbackInferencer(r.engine, r.logger)

	var results []model.FrameResult
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		images, metas, ok := loader.Next()
		if !ok {
			break
		}

		outcomes := inferencer.inferBatch(ctx, images, metas)
		for i, res := range outcomes {
			if res == nil {
				continue
			}

			fr, ok := r.finishFrame(images[i], metas[i], res)
			if !ok {
				continue
			}

			processed++
			bar.Add(1)
			if r.retainResults {
				results = append(results, fr)
			}
		}
	}

	bar.Finish()
	summary.Finish(processed)
	return results, summary, nil
}
