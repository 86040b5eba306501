package source

import (
	"fmt"
	"image"
	"os"
)

// Kind discriminates the Source variant set.
// Consumption points switch over Kind exhaustively; adding a variant means
// revisiting every switch.
type Kind int

const (
	// KindNone is the absence of input. Enumerating it yields no frames.
	KindNone Kind = iota

	// KindImagePath is a path to a single image file.
	KindImagePath

	// KindDirectory is a path to a directory containing images.
	KindDirectory

	// KindPathList is an explicit list of image paths.
	KindPathList

	// KindImage is a single in-memory image.
	KindImage

	// KindImageList is a list of in-memory images.
	KindImageList
)

// String returns the variant name for logging.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindImagePath:
		return "image-path"
	case KindDirectory:
		return "directory"
	case KindPathList:
		return "path-list"
	case KindImage:
		return "image"
	case KindImageList:
		return "image-list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Source is the closed input specification for one pipeline invocation.
// Construct values with None, FromPath, FromPaths, FromImage, or
// FromImages; the zero value is the none variant.
type Source struct {
	kind   Kind
	path   string
	paths  []string
	img    image.Image
	images []image.Image
}

// None returns the empty source.
func None() Source {
	return Source{kind: KindNone}
}

// FromPath builds a source from a filesystem path. A path that stats as a
// directory becomes the directory variant; anything else becomes the
// single-image-path variant (existence is not checked here — a missing
// file surfaces as a decode skip at enumeration time, matching per-frame
// error policy).
func FromPath(path string) Source {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Source{kind: KindDirectory, path: path}
	}
	return Source{kind: KindImagePath, path: path}
}

// FromPaths builds a path-list source. The paths are filtered to
// recognized image extensions at enumeration time, not here.
func FromPaths(paths []string) Source {
	return Source{kind: KindPathList, paths: paths}
}

// FromImage builds a single in-memory image source.
func FromImage(img image.Image) Source {
	return Source{kind: KindImage, img: img}
}

// FromImages builds an in-memory image-list source.
func FromImages(images []image.Image) Source {
	return Source{kind: KindImageList, images: images}
}

// Kind returns the variant discriminator.
func (s Source) Kind() Kind {
	return s.kind
}

// IsBatch reports whether the source can contain more than one frame.
// Batchable sources use the caller-configured strategy; single-frame
// sources always run sequentially.
func (s Source) IsBatch() bool {
	switch s.kind {
	case KindDirectory, KindPathList, KindImageList:
		return true
	default:
		return false
	}
}

// IsSingle reports whether the source is exactly one frame.
func (s Source) IsSingle() bool {
	return s.kind == KindImagePath || s.kind == KindImage
}

// String returns a short description of the source for logs and run
// summaries. In-memory image data is never rendered.
func (s Source) String() string {
	switch s.kind {
	case KindNone:
		return "none"
	case KindImagePath:
		return "image:" + s.path
	case KindDirectory:
		return "dir:" + s.path
	case KindPathList:
		return fmt.Sprintf("paths:%d", len(s.paths))
	case KindImage:
		return "image:<in-memory>"
	case KindImageList:
		return fmt.Sprintf("images:%d", len(s.images))
	default:
		return s.kind.String()
	}
}
