package pipeline

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/visionpipe/visionpipe/internal/model"
)

// prepareSaveDir wipes and recreates the destination directory so that a
// run never mixes its output with stale files from an earlier run. It
// runs before any stage starts; failure here is fatal to the run.
func prepareSaveDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear save directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	return nil
}

// saveFrame writes the annotated image as <stem>.png under dir and
// returns the written path.
func saveFrame(dir string, meta model.FrameMeta, img image.Image) (string, error) {
	path := filepath.Join(dir, meta.Stem()+".png")

	f, err := os.Create(path) //nolint:gosec // Path is derived from the frame stem under the run's own save dir
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}
