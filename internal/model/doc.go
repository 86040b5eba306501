// Package model defines the core data structures used throughout visionpipe.
//
// This package contains the following main types:
//   - FrameMeta: Positional and path metadata for one frame of work
//   - Result: The structured detection result for one frame
//   - FrameResult: A retained per-frame outcome with its annotated image
//   - RunSummary: Aggregate statistics for one pipeline invocation
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (source, engine, pipeline, report, database)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
