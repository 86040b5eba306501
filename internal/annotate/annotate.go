package annotate

import (
	"image"
	"image/draw"

	"github.com/visionpipe/visionpipe/internal/model"
)

// Config controls how a renderer draws detections on a frame. The
// pipeline never interprets it; it travels to the injected Func as-is.
type Config struct {
	// OnBlank draws on a blank canvas instead of the source frame.
	OnBlank bool `yaml:"on_blank"`

	// ShowBox draws bounding boxes.
	ShowBox bool `yaml:"show_box"`

	// ShowLabel draws class labels.
	ShowLabel bool `yaml:"show_label"`

	// ShowConf appends the confidence score to each label.
	ShowConf bool `yaml:"show_conf"`

	// TopK limits rendering to the K most confident detections,
	// 0 for all.
	TopK int `yaml:"top_k"`
}

// DefaultConfig returns the rendering defaults.
func DefaultConfig() Config {
	return Config{ShowBox: true, ShowLabel: true}
}

// Func renders detections onto a frame. The returned image must be owned
// by the callee; the input image must not be mutated or aliased. A nil
// result means the frame carried no detections and implementations must
// still return a valid image.
type Func func(img image.Image, res *model.Result, cfg Config) (image.Image, error)

// Passthrough returns an owned RGBA copy of the frame without drawing.
// It satisfies the ownership contract of Func and serves as the default
// when no renderer is injected.
func Passthrough(img image.Image, _ *model.Result, cfg Config) (image.Image, error) {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	if !cfg.OnBlank {
		draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	}
	return dst, nil
}
