// Package pipeline orchestrates a prediction run end to end.
//
// A run resolves a source into frames, sends them through inference,
// optionally annotates and persists them, and collects the surviving
// results. Four interchangeable strategies cover the combinations of
// batched vs per-frame inference and caller-goroutine vs concurrent
// staged execution:
//
//   - Sequential: one frame at a time on the caller goroutine
//   - BatchSequential: one batch at a time on the caller goroutine
//   - ChannelPipeline: five concurrent stages, one frame per message
//   - BatchChannelPipeline: five concurrent stages, one batch per message
//
// The concurrent strategies run exactly one worker per stage connected by
// bounded channels, so frame order is preserved and peak memory between
// any two stages is channel capacity times frame size.
//
// Per-frame failures (decode, inference, annotation, persistence) are
// logged and drop the frame; they never abort the run. Only setup
// failures (bad source, unwritable save directory) are fatal.
package pipeline
