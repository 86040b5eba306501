package pipeline

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/visionpipe/visionpipe/internal/model"
)

// TestPrepareSaveDir tests the wipe-and-recreate contract.
func TestPrepareSaveDir(t *testing.T) {
	t.Parallel()

	t.Run("removes stale files from an earlier run", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "out")
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatal(err)
		}
		stale := filepath.Join(dir, "stale.png")
		if err := os.WriteFile(stale, []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}

		if err := prepareSaveDir(dir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(stale); !os.IsNotExist(err) {
			t.Error("expected stale file removed")
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Error("expected save directory recreated")
		}
	})

	t.Run("creates a missing directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "a", "b", "out")
		if err := prepareSaveDir(dir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Error("expected nested save directory created")
		}
	})
}

// TestSaveFrame tests PNG persistence and naming.
func TestSaveFrame(t *testing.T) {
	t.Parallel()

	t.Run("writes stem.png and the file decodes", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		meta := model.FrameMeta{FrameIndex: 3, SourcePath: "/data/shot_003.jpg"}
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))

		path, err := saveFrame(dir, meta, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(path) != "shot_003.png" {
			t.Errorf("expected shot_003.png, got %s", filepath.Base(path))
		}

		f, err := os.Open(path) //nolint:gosec // Test-owned temp path
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close() //nolint:errcheck // Test cleanup

		decoded, err := png.Decode(f)
		if err != nil {
			t.Fatalf("written file does not decode: %v", err)
		}
		if decoded.Bounds().Dx() != 4 {
			t.Errorf("unexpected decoded width %d", decoded.Bounds().Dx())
		}
	})

	t.Run("in-memory frame falls back to the index name", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		meta := model.FrameMeta{FrameIndex: 7}
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))

		path, err := saveFrame(dir, meta, img)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(path) != "frame_7.png" {
			t.Errorf("expected frame_7.png, got %s", filepath.Base(path))
		}
	})

	t.Run("missing directory is an error", func(t *testing.T) {
		t.Parallel()

		meta := model.FrameMeta{FrameIndex: 0}
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))

		if _, err := saveFrame(filepath.Join(t.TempDir(), "missing"), meta, img); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
