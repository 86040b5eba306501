package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrDirectoryNotFound is returned when a directory source does not exist.
// Other enumeration problems (unreadable entries, zero valid images)
// degrade to an empty sequence instead of failing the invocation.
var ErrDirectoryNotFound = errors.New("source directory not found")

// imageExtensions is the set of recognized image file extensions.
// These are the formats the standard library codecs can decode; paths with
// other extensions are filtered out before the frame count is computed.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// IsImageFile reports whether the path has a recognized image extension.
// The check is purely name-based; the file is not opened.
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// CollectImagesFromDir returns the image file paths directly inside dir,
// in lexical order. Subdirectories are not descended into. A missing
// directory returns ErrDirectoryNotFound; any other read error yields an
// empty list.
func CollectImagesFromDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDirectoryNotFound
		}
		return nil, nil
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if IsImageFile(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}
