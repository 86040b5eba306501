package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CaptureInfo holds optional EXIF-derived metadata for a path-based frame.
// It is extracted on a best-effort basis during source enumeration; frames
// without EXIF data (or non-path frames) carry a nil CaptureInfo.
type CaptureInfo struct {
	// Timestamp is the original capture time from the EXIF DateTimeOriginal
	// tag, zero if the tag is absent or unparseable.
	Timestamp time.Time `json:"timestamp,omitzero"`

	// CameraModel is the camera model string from the EXIF Model tag.
	CameraModel string `json:"camera_model,omitempty"`
}

// FrameMeta identifies one frame's position within a pipeline invocation.
// It travels with the frame through every stage and is the only part of a
// frame that survives into reports and the run database.
type FrameMeta struct {
	// FrameIndex is the 0-based global index of the frame across the whole
	// invocation. For batched sources this is batchIndex*batchSize+i, which
	// establishes global ordering independent of batch boundaries.
	FrameIndex int `json:"frame_index"`

	// TotalFrames is the total number of frames declared by the source
	// enumerator (1 for single-image sources). This is an upper bound when
	// path decoding can fail.
	TotalFrames int `json:"total_frames"`

	// SourcePath is the originating file path, empty for in-memory frames.
	SourcePath string `json:"source_path,omitempty"`

	// Capture is EXIF-derived capture metadata, nil when unavailable.
	Capture *CaptureInfo `json:"capture,omitempty"`
}

// Stem returns the source file name without its extension, or
// "frame_<index>" when the frame has no originating path. Persisted
// artifacts are named after this stem.
func (m FrameMeta) Stem() string {
	if m.SourcePath == "" {
		return fmt.Sprintf("frame_%d", m.FrameIndex)
	}
	base := filepath.Base(m.SourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the source file name including its extension, or
// "frame_<index>" when the frame has no originating path. Used for logging.
func (m FrameMeta) Name() string {
	if m.SourcePath == "" {
		return fmt.Sprintf("frame_%d", m.FrameIndex)
	}
	return filepath.Base(m.SourcePath)
}
