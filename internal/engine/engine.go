package engine

import (
	"context"
	"image"

	"github.com/visionpipe/visionpipe/internal/model"
)

// Engine is the inference collaborator consumed by the pipeline.
//
// Both methods are blocking and honor context cancellation. PredictBatch
// may fail at the batch level (e.g. the model rejects variable batch
// sizes); the pipeline reacts by falling back to PredictSingle per image
// for the rest of the invocation.
type Engine interface {
	// PredictSingle runs inference on one image and returns its result.
	PredictSingle(ctx context.Context, img image.Image) (*model.Result, error)

	// PredictBatch runs inference on a batch of images and returns one
	// result per image, in input order. An error means the whole batch
	// failed; per-image partial failure is not distinguished.
	PredictBatch(ctx context.Context, images []image.Image) ([]*model.Result, error)
}

// Options are inference parameters forwarded to the engine with every
// request. The pipeline never interprets them.
type Options struct {
	// Confidence is the minimum detection confidence threshold.
	Confidence float64 `json:"confidence"`

	// IoU is the IoU threshold for non-maximum suppression.
	IoU float64 `json:"iou"`

	// MaxDetections caps the number of detections per image.
	MaxDetections int `json:"max_detections"`

	// ImageSize is the inference image size, 0 for the engine default.
	ImageSize int `json:"image_size,omitempty"`

	// Half requests FP16 half-precision inference.
	Half bool `json:"half,omitempty"`

	// Device selects the compute device (cpu, cuda:0, ...), empty for the
	// engine default.
	Device string `json:"device,omitempty"`
}
