package source

import (
	"time"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/visionpipe/visionpipe/internal/model"
)

// exifTimeLayout is the timestamp format used by EXIF DateTime tags.
const exifTimeLayout = "2006:01:02 15:04:05"

// probeCaptureInfo extracts capture metadata from an image file's EXIF
// block. Extraction is strictly best-effort: any failure (no EXIF block,
// unparseable tags) returns nil and the frame proceeds without capture
// info. The probe never fails a frame.
func probeCaptureInfo(path string) *model.CaptureInfo {
	rawExif, err := exif.SearchFileAndExtractExif(path)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	var info model.CaptureInfo
	for _, entry := range entries {
		switch entry.TagName {
		case "DateTimeOriginal":
			if ts, err := time.Parse(exifTimeLayout, entry.Formatted); err == nil {
				info.Timestamp = ts
			}
		case "Model":
			info.CameraModel = entry.Formatted
		}
	}

	if info.Timestamp.IsZero() && info.CameraModel == "" {
		return nil
	}
	return &info
}
