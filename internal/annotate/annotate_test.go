package annotate

import (
	"image"
	"image/color"
	"testing"
)

// TestPassthrough tests the ownership and copy semantics of the default
// annotator.
func TestPassthrough(t *testing.T) {
	t.Parallel()

	t.Run("returns an owned copy", func(t *testing.T) {
		t.Parallel()

		src := image.NewRGBA(image.Rect(0, 0, 2, 2))
		src.Set(0, 0, color.RGBA{R: 255, A: 255})

		out, err := Passthrough(src, nil, Config{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out == image.Image(src) {
			t.Fatal("expected a copy, got the source image")
		}

		got := out.At(0, 0)
		r, _, _, _ := got.RGBA()
		if r == 0 {
			t.Error("expected source pixel copied into output")
		}

		// Mutating the source must not affect the output.
		src.Set(0, 0, color.RGBA{G: 255, A: 255})
		r2, _, _, _ := out.At(0, 0).RGBA()
		if r2 != r {
			t.Error("output aliases the source image")
		}
	})

	t.Run("on blank returns an empty canvas of the same size", func(t *testing.T) {
		t.Parallel()

		src := image.NewRGBA(image.Rect(0, 0, 3, 2))
		src.Set(1, 1, color.RGBA{B: 255, A: 255})

		out, err := Passthrough(src, nil, Config{OnBlank: true})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Bounds() != src.Bounds() {
			t.Errorf("expected bounds %v, got %v", src.Bounds(), out.Bounds())
		}
		_, _, b, _ := out.At(1, 1).RGBA()
		if b != 0 {
			t.Error("expected blank canvas, source pixel leaked through")
		}
	})
}

// TestDefaultConfig tests the rendering defaults.
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if !cfg.ShowBox || !cfg.ShowLabel {
		t.Errorf("expected boxes and labels on by default, got %+v", cfg)
	}
	if cfg.ShowConf || cfg.OnBlank || cfg.TopK != 0 {
		t.Errorf("unexpected non-zero defaults: %+v", cfg)
	}
}
