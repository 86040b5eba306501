package pipeline

import (
	"context"
	"image"
	"log/slog"

	"github.com/visionpipe/visionpipe/internal/engine"
	"github.com/visionpipe/visionpipe/internal/model"
)

// fallbackInferencer runs batched inference with a one-way degradation
// latch. The first batch-level failure flips failed; every later batch in
// the same run skips the batched call and goes straight to per-image
// inference. The latch belongs to one run: each strategy invocation
// creates its own inferencer, so degradation never leaks across runs.
type fallbackInferencer struct {
	engine engine.Engine
	logger *slog.Logger
	failed bool
}

func newFallbackInferencer(eng engine.Engine, logger *slog.Logger) *fallbackInferencer {
	return &fallbackInferencer{engine: eng, logger: logger}
}

// inferBatch returns one result per image, in input order. A nil entry
// means that frame was dropped. The returned slice always has
// len(images) entries.
func (f *fallbackInferencer) inferBatch(ctx context.Context, images []image.Image, metas []model.FrameMeta) []*model.Result {
	if len(images) == 0 {
		return nil
	}

	if !f.failed {
		results, err := f.engine.PredictBatch(ctx, images)
		if err == nil {
			return results
		}

		f.failed = true
		f.logger.Warn("batched inference failed, switching to per-image inference for the rest of the run",
			"batch_size", len(images),
			"first_frame", metas[0].Name(),
			"error", err.Error())
	}

	results := make([]*model.Result, len(images))
	for i, img := range images {
		res, err := f.engine.PredictSingle(ctx, img)
		if err != nil {
			f.logger.Warn("inference failed, dropping frame",
				"frame", metas[i].Name(),
				"error", err.Error())
			continue
		}
		results[i] = res
	}
	return results
}
