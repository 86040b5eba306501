package pipeline

import (
	"context"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/source"
)

// Stage messages. Each stage owns its inbound channel's messages until it
// forwards or drops them; a dropped frame simply never reaches the next
// channel.
type loadedFrame struct {
	img  image.Image
	meta model.FrameMeta
}

type inferredFrame struct {
	loadedFrame
	res *model.Result
}

type annotatedFrame struct {
	meta      model.FrameMeta
	res       *model.Result
	annotated image.Image
}

// runChannelPipeline runs five concurrent stages passing one frame per
// message: load, infer, annotate, persist, collect. Exactly one worker
// per stage keeps frames in source order; bounded channels keep peak
// memory between any two stages at capacity times frame size. Once the
// stages start, the run drains fully; ctx reaches only the engine calls.
func (r *Runner) runChannelPipeline(ctx context.Context, src source.Source) ([]model.FrameResult, *model.RunSummary, error) {
	loader, err := source.NewLoader(src, r.loaderOptions()...)
	if err != nil {
		return nil, nil, err
	}

	summary := model.NewRunSummary(ChannelPipeline.String(), src.String(), 1, loader.Len())
	bar := newProgress(loader.Len(), r.showProgress)

	loaded := make(chan loadedFrame, r.channelCapacity)
	inferred := make(chan inferredFrame, r.channelCapacity)
	annotated := make(chan annotatedFrame, r.channelCapacity)
	persisted := make(chan model.FrameResult, r.channelCapacity)

	var g errgroup.Group

	// Load stage: decode lazily, one frame ahead of demand plus channel
	// slack.
	g.Go(func() error {
		defer close(loaded)
		for {
			img, meta, ok := loader.Next()
			if !ok {
				return nil
			}
			loaded <- loadedFrame{img: img, meta: meta}
		}
	})

	// Infer stage: per-frame engine calls; failures drop the frame.
	g.Go(func() error {
		defer close(inferred)
		for lf := range loaded {
			res := r.inferOne(ctx, lf.img, lf.meta)
			if res == nil {
				continue
			}
			inferred <- inferredFrame{loadedFrame: lf, res: res}
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

// annotateStage renders each inferred frame. Annotation failures drop
// the frame. With annotation disabled, frames pass through with no
// annotated image.
func (r *Runner) annotateStage(in <-chan inferredFrame, out chan<- annotatedFrame) {
	for f := range in {
		af := annotatedFrame{meta: f.meta, res: f.res}

		if r.annotate {
			img, err := r.annotateFn(f.img, f.res, r.annotateCfg)
			if err != nil {
				r.logger.Warn("annotation failed, dropping frame",
					"frame", f.meta.Name(),
					"error", err.Error())
				continue
			}
			af.annotated = img
		}

		out <- af
	}
}

// persistStage writes annotated frames to the save directory. Write
// failures drop the frame. Frames with no annotated image pass through
// unwritten.
func (r *Runner) persistStage(in <-chan annotatedFrame, out chan<- model.FrameResult) {
	for f := range in {
		if r.saveDir != "" && f.annotated != nil {
			if _, err := saveFrame(r.saveDir, f.meta, f.annotated); err != nil {
				r.logger.Warn("persist failed, dropping frame",
					"frame", f.meta.Name(),
					"error", err.Error())
				continue
			}
		}

		out <- model.FrameResult{Result: f.res, Annotated: f.annotated, Meta: f.meta}
	}
}
