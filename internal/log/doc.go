// Package log provides logging functionality for visionpipe, built on top
// of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic truncation of oversized attribute values (raw image bytes,
//     long path lists) before they reach the log output
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// Pipeline stages log one line per frame in verbose mode. Attribute values
// such as path lists for a whole batch can grow large; the TruncatingHandler
// caps them so verbose runs over big directories stay readable.
//
// # Usage
//
//	// Create a logger
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("loading batch",
//	    "batch", 3,
//	    "frames", frameNames, // truncated if very long
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
