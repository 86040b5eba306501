package model

import "image"

// Rect is an axis-aligned bounding box in pixel coordinates.
// Coordinates are float64 because inference engines commonly return
// sub-pixel box positions.
type Rect struct {
	// X1, Y1 is the top-left corner.
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`

	// X2, Y2 is the bottom-right corner.
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Detection is a single detected object within a frame.
//
// The pipeline never interprets these fields; they pass through from the
// inference engine to annotation, reports, and the run database unchanged.
type Detection struct {
	// Class is the human-readable class label (e.g. "person").
	Class string `json:"class"`

	// ClassID is the numeric class index in the model's label set.
	ClassID int `json:"class_id"`

	// Confidence is the detection confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Box is the bounding box of the detection.
	Box Rect `json:"box"`
}

// Result is the structured inference outcome for one frame.
// A nil *Result means the frame was dropped: its inference, decoding,
// annotation, or persistence failed and it is excluded from all downstream
// stages and from the progress count.
type Result struct {
	// Detections are the objects found in the frame, in engine order.
	Detections []Detection `json:"detections"`

	// Width and Height are the dimensions of the inferred image.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FrameResult is one retained per-frame outcome. The pipeline accumulates
// these only when the caller opted into result retention; otherwise frames
// are freed as soon as the collect stage consumes them.
type FrameResult struct {
	// Result is the inference outcome. Always non-nil for retained frames;
	// dropped frames never reach the result list.
	Result *Result `json:"result"`

	// Annotated is the annotated image, nil when annotation was disabled.
	Annotated image.Image `json:"-"`

	// Meta is the frame's positional and path metadata.
	Meta FrameMeta `json:"meta"`
}
