package pipeline

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/source"
)

// loadedBatch carries one decoded batch between the load and infer
// stages. images and metas are parallel slices of equal length.
type loadedBatch struct {
	images []image.Image
	metas  []model.FrameMeta
}

// runBatchChannelPipeline runs five concurrent stages passing one batch
// per message between load and infer, then one frame per message for
// annotate, persist, and collect. The infer stage owns the fallback
// latch: the first batch-level failure degrades the rest of the run to
// per-image inference. Stage topology and ordering guarantees match
// runChannelPipeline.
func (r *Runner) runBatchChannelPipeline(ctx context.Context, src source.Source) ([]model.FrameResult, *model.RunSummary, error) {
	loader, err := source.NewBatchLoader(src, r.batchSize, r.loaderOptions()...)
	if err != nil {
		return nil, nil, err
	}

	summary := model.NewRunSummary(BatchChannelPipeline.String(), src.String(), loader.BatchSize(), loader.TotalFrames())
	bar := newProgress(loader.TotalFrames(), r.showProgress)

	loaded := make(chan loadedBatch, r.channelCapacity)
	inferred := make(chan inferredFrame, r.channelCapacity)
	annotated := make(chan annotatedFrame, r.channelCapacity)
	persisted := make(chan model.FrameResult, r.channelCapacity)

	var g errgroup.Group

	g.Go(func() error {
		defer close(loaded)
		for {
			images, metas, ok := loader.Next()
			if !ok {
				return nil
			}
			loaded <- loadedBatch{images: images, metas: metas}
		}
	})

	// Infer stage: batched with one-way fallback; frames with no result
	// are dropped here and never reach the later stages.
	g.Go(func() error {
		defer close(inferred)
		inferencer := newFallbackInferencer(r.engine, r.logger)
		for b := range loaded {
			outcomes := inferencer.inferBatch(ctx, b.images, b.metas)
			for i, res := range outcomes {
				if res == nil {
					continue
				}
				inferred <- inferredFrame{
					loadedFrame: loadedFrame{img: b.images[i], meta: b.metas[i]},
					res:         res,
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		defer close(annotated)
		r.annotateStage(inferred, annotated)
		return nil
	})

	g.Go(func() error {
		defer close(persisted)
		r.persistStage(annotated, persisted)
		return nil
	})

	var results []model.FrameResult
	processed := 0
	g.Go(func() error {
		for fr := range persisted {
			processed++
			bar.Add(1)
			if r.retainResults {
				results = append(results, fr)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	bar.Finish()
	summary.Finish(processed)
	return results, summary, nil
}
