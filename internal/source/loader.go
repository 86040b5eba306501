package source

import (
	"image"
	"log/slog"

	"github.com/visionpipe/visionpipe/internal/model"
)

// frameData is one unresolved frame handle: a not-yet-decoded path, an
// already-owned in-memory image, or (inside BatchLoader only) a padding
// slot with neither.
type frameData struct {
	path string
	img  image.Image
}

// isPadding reports whether the slot is batch padding.
func (f frameData) isPadding() bool {
	return f.path == "" && f.img == nil
}

// Loader enumerates a Source one frame at a time.
//
// Frame handles are collected up front (paths are not opened), so Len is
// exact and available before iteration starts. Path-based frames are
// decoded lazily in Next; a decode failure is logged, the frame is
// skipped, and iteration continues. Len is therefore an upper bound on the
// number of frames actually yielded — the two are equal whenever no decode
// fails.
type Loader struct {
	// frames are the unresolved frame handles in source order.
	frames []frameData

	// idx is the next frame to yield.
	idx int

	// logger receives per-frame skip messages.
	logger *slog.Logger

	// captureInfo enables the best-effort EXIF probe for path frames.
	captureInfo bool
}

// LoaderOption configures a Loader or BatchLoader.
type LoaderOption func(*loaderOptions)

// loaderOptions holds settings shared by both enumerators.
type loaderOptions struct {
	logger      *slog.Logger
	captureInfo bool
}

// WithLogger sets a custom logger for enumeration skip messages.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(o *loaderOptions) {
		o.logger = logger
	}
}

// WithCaptureInfo enables EXIF capture-metadata extraction for path-based
// frames. The probe is best-effort and adds one extra file read per frame.
func WithCaptureInfo(enabled bool) LoaderOption {
	return func(o *loaderOptions) {
		o.captureInfo = enabled
	}
}

// applyLoaderOptions resolves options with defaults.
func applyLoaderOptions(opts []LoaderOption) loaderOptions {
	o := loaderOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// collectFrames resolves a Source to its ordered frame handles.
// Path-based sources are filtered to recognized image extensions here,
// once, before any count is reported. In-memory images are cloned so the
// loader owns every frame it will yield.
func collectFrames(src Source) ([]frameData, error) {
	switch src.Kind() {
	case KindNone:
		return nil, nil
	case KindImagePath:
		if !IsImageFile(src.path) {
			return nil, nil
		}
		return []frameData{{path: src.path}}, nil
	case KindDirectory:
		paths, err := CollectImagesFromDir(src.path)
		if err != nil {
			return nil, err
		}
		frames := make([]frameData, 0, len(paths))
		for _, p := range paths {
			frames = append(frames, frameData{path: p})
		}
		return frames, nil
	case KindPathList:
		frames := make([]frameData, 0, len(src.paths))
		for _, p := range src.paths {
			if IsImageFile(p) {
				frames = append(frames, frameData{path: p})
			}
		}
		return frames, nil
	case KindImage:
		return []frameData{{img: cloneImage(src.img)}}, nil
	case KindImageList:
		frames := make([]frameData, 0, len(src.images))
		for _, img := range src.images {
			frames = append(frames, frameData{img: cloneImage(img)})
		}
		return frames, nil
	default:
		return nil, nil
	}
}

// NewLoader creates a Loader for the given source.
// A directory source that does not exist returns ErrDirectoryNotFound;
// every other resolution problem yields an empty loader.
func NewLoader(src Source, opts ...LoaderOption) (*Loader, error) {
	o := applyLoaderOptions(opts)

	frames, err := collectFrames(src)
	if err != nil {
		return nil, err
	}

	return &Loader{
		frames:      frames,
		logger:      o.logger,
		captureInfo: o.captureInfo,
	}, nil
}

// Len returns the declared frame count. Exact for in-memory sources; an
// upper bound for path-based sources where decoding can fail.
func (l *Loader) Len() int {
	return len(l.frames)
}

// Next yields the next frame and its metadata, decoding path frames on
// demand. It returns ok=false when the sequence is exhausted. Frames whose
// decode fails are logged and skipped.
func (l *Loader) Next() (image.Image, model.FrameMeta, bool) {
	for l.idx < len(l.frames) {
		frame := l.frames[l.idx]
		idx := l.idx
		l.idx++

		meta := model.FrameMeta{
			FrameIndex:  idx,
			TotalFrames: len(l.frames),
		}

		if frame.img != nil {
			// Drop the reference so the loader does not pin consumed frames.
			l.frames[idx].img = nil
			return frame.img, meta, true
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
		return img, meta, true
	}

	return nil, model.FrameMeta{}, false
}
