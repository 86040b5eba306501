package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/visionpipe/visionpipe/internal/annotate"
	"github.com/visionpipe/visionpipe/internal/engine"
	"github.com/visionpipe/visionpipe/internal/model"
	"github.com/visionpipe/visionpipe/internal/source"
)

// Default runner settings.
const (
	// defaultBatchSize is the inference batch size for batched strategies.
	defaultBatchSize = 4

	// defaultChannelCapacity bounds each inter-stage channel in the
	// concurrent strategies.
	defaultChannelCapacity = 8
)

// ErrNoEngine is returned when a Runner is created without an engine.
var ErrNoEngine = errors.New("no inference engine configured")

// Runner executes prediction runs. It holds everything a run needs
// except the source: the engine, the annotator, the strategy, and the
// output settings. One Runner can execute many runs.
type Runner struct {
	// engine performs inference. Required.
	engine engine.Engine

	// annotateFn renders detections onto frames when annotation is
	// enabled. Defaults to annotate.Passthrough.
	annotateFn annotate.Func

	// annotateCfg travels to annotateFn unchanged.
	annotateCfg annotate.Config

	// annotate enables the annotation stage. When false, frames carry no
	// annotated image and nothing is persisted.
	annotate bool

	// strategy selects the execution strategy. A single-image source
	// always runs sequentially regardless of this setting.
	strategy Strategy

	// batchSize is the inference batch size for batched strategies.
	batchSize int

	// channelCapacity bounds every inter-stage channel in the concurrent
	// strategies.
	channelCapacity int

	// saveDir is the destination for annotated images. It is wiped and
	// recreated at the start of every run. Empty disables persistence.
	saveDir string

	// retainResults keeps every surviving frame's result in memory and
	// returns the full ordered list. When false, Run returns nil results
	// and peak memory stays bounded by channel capacity.
	retainResults bool

	// captureInfo enables the EXIF probe on path-backed frames.
	captureInfo bool

	// showProgress enables the terminal progress bar.
	showProgress bool

	// logger receives per-frame drop warnings and stage debug output.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStrategy sets the execution strategy.
func WithStrategy(s Strategy) RunnerOption {
	return func(r *Runner) {
		r.strategy = s
	}
}

// WithBatchSize sets the inference batch size for batched strategies.
// Values below 1 are ignored.
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithChannelCapacity sets the inter-stage channel capacity for the
// concurrent strategies. Values below 1 are ignored.
func WithChannelCapacity(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.channelCapacity = n
		}
	}
}

// WithAnnotator enables annotation with the given renderer and config.
// A nil fn keeps the passthrough renderer.
func WithAnnotator(fn annotate.Func, cfg annotate.Config) RunnerOption {
	return func(r *Runner) {
		r.annotate = true
		if fn != nil {
			r.annotateFn = fn
		}
		r.annotateCfg = cfg
	}
}

// WithSaveDir sets the destination directory for annotated images.
func WithSaveDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.saveDir = dir
	}
}

// WithRetainResults keeps surviving frame results in memory and returns
// them from Run.
func WithRetainResults(retain bool) RunnerOption {
	return func(r *Runner) {
		r.retainResults = retain
	}
}

// WithCaptureInfo enables the EXIF probe on path-backed frames.
func WithCaptureInfo(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.captureInfo = enabled
	}
}

// WithProgress toggles the terminal progress bar.
func WithProgress(enabled bool) RunnerOption {
	return func(r *Runner) {
		r.showProgress = enabled
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner for the given engine.
func NewRunner(eng engine.Engine, opts ...RunnerOption) (*Runner, error) {
	if eng == nil {
		return nil, ErrNoEngine
	}

	r := &Runner{
		engine:          eng,
		annotateFn:      annotate.Passthrough,
		strategy:        BatchChannelPipeline,
		batchSize:       defaultBatchSize,
		channelCapacity: defaultChannelCapacity,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r, nil
}

// Run executes one prediction run over the source.
//
// The returned results are the surviving frames in source order; nil
// unless retention is enabled. The summary is always returned on
// success. Setup failures (bad source, unwritable save directory) are
// the only fatal errors; per-frame failures drop the frame and the run
// continues.
func (r *Runner) Run(ctx context.Context, src source.Source) ([]model.FrameResult, *model.RunSummary, error) {
	strategy := r.strategy
	if src.IsSingle() && strategy != Sequential {
		r.logger.Debug("single-image source, forcing sequential strategy",
			"requested", strategy.String())
		strategy = Sequential
	}

	// The destination is cleared before any stage starts so a run never
	// mixes its output with stale files.
	if r.saveDir != "" {
		if err := prepareSaveDir(r.saveDir); err != nil {
			return nil, nil, err
		}
	}

	r.logger.Debug("starting run",
		"strategy", strategy.String(),
		"source", src.String(),
		"batch_size", r.batchSize,
		"channel_capacity", r.channelCapacity)

	switch strategy {
	case Sequential:
		return r.runSequential(ctx, src)
	case BatchSequential:
		return r.runBatchSequential(ctx, src)
	case ChannelPipeline:
		return r.runChannelPipeline(ctx, src)
	case BatchChannelPipeline:
		return r.runBatchChannelPipeline(ctx, src)
	default:
		return r.runBatchChannelPipeline(ctx, src)
	}
}

// loaderOptions builds the source loader options shared by all
// strategies.
func (r *Runner) loaderOptions() []source.LoaderOption {
	return []source.LoaderOption{
		source.WithLogger(r.logger),
		source.WithCaptureInfo(r.captureInfo),
	}
}

// inferOne runs per-frame inference. A nil return means the frame was
// dropped.
func (r *Runner) inferOne(ctx context.Context, img image.Image, meta model.FrameMeta) *model.Result {
	res, err := r.engine.PredictSingle(ctx, img)
	if err != nil {
		r.logger.Warn("inference failed, dropping frame",
			"frame", meta.Name(),
			"error", err.Error())
		return nil
	}
	return res
}

// finishFrame applies annotation and persistence to an inferred frame.
// It reports false when the frame is dropped by either step.
func (r *Runner) finishFrame(img image.Image, meta model.FrameMeta, res *model.Result) (model.FrameResult, bool) {
	fr := model.FrameResult{Result: res, Meta: meta}

	if r.annotate {
		annotated, err := r.annotateFn(img, res, r.annotateCfg)
		if err != nil {
			r.logger.Warn("annotation failed, dropping frame",
				"frame", meta.Name(),
				"error", err.Error())
			return model.FrameResult{}, false
		}
		fr.Annotated = annotated
	}

	if r.saveDir != "" && fr.Annotated != nil {
		if _, err := saveFrame(r.saveDir, meta, fr.Annotated); err != nil {
			r.logger.Warn("persist failed, dropping frame",
				"frame", meta.Name(),
				"error", err.Error())
			return model.FrameResult{}, false
		}
	}

	return fr, true
}
