// Package source turns a heterogeneous input specification into an ordered
// sequence of frames for the inference pipeline.
//
// A Source is a closed variant set: a single image path, a directory, a
// path list, an in-memory image, an in-memory image list, or nothing.
// Directory and path-list variants are filtered to recognized image
// extensions exactly once, at enumeration time, before any frame count is
// reported.
//
// Two enumerators consume a Source:
//   - Loader yields one frame at a time
//   - BatchLoader yields fixed-size batches, padding the final batch
//     internally and never surfacing padding slots downstream
//
// Both decode path-based frames lazily, one frame (or one batch) at a
// time, so peak memory is bounded by what is in flight rather than by the
// input size. Individual decode failures are logged and skipped; the
// declared length is therefore an upper bound for path-based sources.
package source
