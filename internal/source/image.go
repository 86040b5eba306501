package source

import (
	"image"
	"image/draw"
	"os"

	// Register the decoders for the recognized extensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// decodeImage opens and decodes a single image file.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // Enumerated source path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // Read-only file

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// cloneImage returns an owned RGBA copy of src. In-memory source images
// are cloned at enumeration time so the caller's image is never shared
// across stage boundaries.
func cloneImage(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
