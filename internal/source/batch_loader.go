package source

import (
	"image"
	"log/slog"

	"github.com/visionpipe/visionpipe/internal/model"
)

// BatchLoader enumerates a Source in fixed-size batches.
//
// Frame handles are collected and chunked up front; the final chunk is
// padded with placeholder slots so every chunk has exactly batchSize
// slots. Padding exists only inside the loader: padded slots are silently
// omitted from yielded batches, so the image and meta slices of the last
// batch may be shorter than the batch size.
//
// Invariant: TotalFrames() == Len()*batchSize - padding, and the frame
// index of item i in batch b is b*batchSize+i, which preserves global
// ordering independent of batch boundaries.
type BatchLoader struct {
	// batches are the padded, fixed-size chunks of frame handles.
	batches [][]frameData

	// idx is the next batch to yield.
	idx int

	// batchSize is the configured chunk size.
	batchSize int

	// totalFrames is the declared frame count excluding padding.
	totalFrames int

	// logger receives per-frame skip messages.
	logger *slog.Logger

	// captureInfo enables the best-effort EXIF probe for path frames.
	captureInfo bool
}

// NewBatchLoader creates a BatchLoader for the given source. A batch size
// below 1 falls back to 1. A directory source that does not exist returns
// ErrDirectoryNotFound; every other resolution problem yields an empty
// loader.
func NewBatchLoader(src Source, batchSize int, opts ...LoaderOption) (*BatchLoader, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	o := applyLoaderOptions(opts)

	frames, err := collectFrames(src)
	if err != nil {
		return nil, err
	}

	batches, padding := padAndChunk(frames, batchSize)

	return &BatchLoader{
		batches:     batches,
		batchSize:   batchSize,
		totalFrames: len(batches)*batchSize - padding,
		logger:      o.logger,
		captureInfo: o.captureInfo,
	}, nil
}

// padAndChunk pads frames to a multiple of batchSize with placeholder
// slots and splits them into fixed-size chunks. Returns the chunks and the
// number of padding slots added.
func padAndChunk(frames []frameData, batchSize int) ([][]frameData, int) {
	padding := 0
	for len(frames)%batchSize != 0 {
		frames = append(frames, frameData{})
		padding++
	}

	batches := make([][]frameData, 0, len(frames)/batchSize)
	for i := 0; i < len(frames); i += batchSize {
		batches = append(batches, frames[i:i+batchSize])
	}
	return batches, padding
}

// Len returns the number of batches.
func (l *BatchLoader) Len() int {
	return len(l.batches)
}

// BatchSize returns the configured batch size.
func (l *BatchLoader) BatchSize() int {
	return l.batchSize
}

// TotalFrames returns the declared frame count excluding padding slots.
// An upper bound when path decoding can fail.
func (l *BatchLoader) TotalFrames() int {
	return l.totalFrames
}

// Next yields the next batch as parallel image and meta slices, decoding
// path frames on demand. Padding slots and frames whose decode fails are
// omitted, so the yielded slices may be shorter than the batch size (but
// are always the same length as each other). It returns ok=false when the
// sequence is exhausted.
func (l *BatchLoader) Next() ([]image.Image, []model.FrameMeta, bool) {
	if l.idx >= len(l.batches) {
		return nil, nil, false
	}

	batch := l.batches[l.idx]
	batchIdx := l.idx
	l.idx++

	images := make([]image.Image, 0, l.batchSize)
	metas := make([]model.FrameMeta, 0, l.batchSize)

	for i, frame := range batch {
		if frame.isPadding() {
			continue
		}

		meta := model.FrameMeta{
			FrameIndex:  batchIdx*l.batchSize + i,
			TotalFrames: l.totalFrames,
		}

		if frame.img != nil {
			batch[i].img = nil
			images = append(images, frame.img)
			metas = append(metas, meta)
			continue
		}

		img, err := decodeImage(frame.path)
		if err != nil {
			l.logger.Error("failed to decode image, skipping",
				"path", frame.path,
				"error", err,
			)
			continue
		}

		meta.SourcePath = frame.path
		if l.captureInfo {
			meta.Capture = probeCaptureInfo(frame.path)
		}
		images = append(images, img)
		metas = append(metas, meta)
	}

	return images, metas, true
}
