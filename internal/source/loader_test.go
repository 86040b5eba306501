package source

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
)

// drainLoader collects every frame the loader yields.
func drainLoader(t *testing.T, l *Loader) []image.Image {
	t.Helper()

	var images []image.Image
	for {
		img, _, ok := l.Next()
		if !ok {
			return images
		}
		images = append(images, img)
	}
}

// TestLoader tests single-frame enumeration.
func TestLoader(t *testing.T) {
	t.Parallel()

	t.Run("yields every frame of a directory source", func(t *testing.T) {
		t.Parallel()

		dir := writeImageDir(t, 5)
		l, err := NewLoader(FromPath(dir))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if l.Len() != 5 {
			t.Errorf("expected length 5, got %d", l.Len())
		}
		if got := len(drainLoader(t, l)); got != 5 {
			t.Errorf("expected 5 frames, got %d", got)
		}
	})

	t.Run("frame metadata carries index total and path", func(t *testing.T) {
		t.Parallel()

		dir := writeImageDir(t, 3)
		l, err := NewLoader(FromPath(dir))
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 3; i++ {
			_, meta, ok := l.Next()
			if !ok {
				t.Fatalf("loader exhausted at frame %d", i)
			}
			if meta.FrameIndex != i {
				t.Errorf("expected frame index %d, got %d", i, meta.FrameIndex)
			}
			if meta.TotalFrames != 3 {
				t.Errorf("expected total 3, got %d", meta.TotalFrames)
			}
			if meta.SourcePath == "" {
				t.Error("expected source path for path-based frame")
			}
		}
	})

	t.Run("skips undecodable frames and keeps going", func(t *testing.T) {
		t.Parallel()

		dir := writeImageDir(t, 4)
		if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("not a png"), 0600); err != nil {
			t.Fatal(err)
		}

		l, err := NewLoader(FromPath(dir))
		if err != nil {
			t.Fatal(err)
		}

		// Declared length counts the corrupt file; iteration drops it.
		if l.Len() != 5 {
			t.Errorf("expected declared length 5, got %d", l.Len())
		}
		if got := len(drainLoader(t, l)); got != 4 {
			t.Errorf("expected 4 decoded frames, got %d", got)
		}
	})

	t.Run("missing directory is a surfaced error", func(t *testing.T) {
		t.Parallel()

		_, err := NewLoader(FromPath(filepath.Join(t.TempDir(), "missing")))
		if !errors.Is(err, ErrDirectoryNotFound) {
			t.Errorf("expected ErrDirectoryNotFound, got %v", err)
		}
	})

	t.Run("single path with unrecognized extension yields empty sequence", func(t *testing.T) {
		t.Parallel()

		l, err := NewLoader(FromPath("document.txt"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Len() != 0 {
			t.Errorf("expected empty loader, got length %d", l.Len())
		}
	})

	t.Run("path list is filtered before the count", func(t *testing.T) {
		t.Parallel()

		dir := writeImageDir(t, 2)
		paths := []string{
			filepath.Join(dir, "img_00.png"),
			filepath.Join(dir, "readme.md"),
			filepath.Join(dir, "img_01.png"),
		}

		l, err := NewLoader(FromPaths(paths))
		if err != nil {
			t.Fatal(err)
		}
		if l.Len() != 2 {
			t.Errorf("expected length 2 after filtering, got %d", l.Len())
		}
	})

	t.Run("in-memory image is cloned", func(t *testing.T) {
		t.Parallel()

		original := makeImage(4, 4)
		l, err := NewLoader(FromImage(original))
		if err != nil {
			t.Fatal(err)
		}

		img, meta, ok := l.Next()
		if !ok {
			t.Fatal("expected one frame")
		}
		if img == image.Image(original) {
			t.Error("expected an owned copy, got the caller's image")
		}
		if meta.SourcePath != "" {
			t.Errorf("in-memory frame should have no path, got %q", meta.SourcePath)
		}
	})

	t.Run("none source yields nothing", func(t *testing.T) {
		t.Parallel()

		l, err := NewLoader(None())
		if err != nil {
			t.Fatal(err)
		}
		if l.Len() != 0 {
			t.Errorf("expected empty loader, got length %d", l.Len())
		}
		if _, _, ok := l.Next(); ok {
			t.Error("expected no frames from none source")
		}
	})
}
