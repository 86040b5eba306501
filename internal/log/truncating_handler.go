package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Truncation limits for log attribute values.
const (
	// MaxStringLen is the maximum length of a string attribute value.
	// Longer values are cut and suffixed with an ellipsis marker. 256 bytes
	// is enough for any file path while keeping one-line-per-frame output
	// readable.
	MaxStringLen = 256

	// MaxListItems is the maximum number of items rendered for a slice
	// attribute (e.g. the frame names of a batch). Remaining items are
	// summarized as a count.
	MaxListItems = 8
)

// TruncatedMarker is appended to values that were cut.
const TruncatedMarker = "...(truncated)"

// TruncatingHandler wraps an slog.Handler to cap oversized attribute values.
// It intercepts log records and truncates long strings and long slices
// before passing them to the underlying handler.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Call sites stay free of truncation logic
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives capped records.
	handler slog.Handler
}

// NewTruncatingHandler creates a new TruncatingHandler wrapping the given
// handler. If handler is nil, the returned TruncatingHandler wraps
// slog.Default().Handler().
func NewTruncatingHandler(handler slog.Handler) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &TruncatingHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle truncates the record's attributes and passes it to the underlying
// handler.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	capped := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		capped.AddAttrs(h.truncateAttr(a))
		return true
	})

	return h.handler.Handle(ctx, capped)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are truncated before being added.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	capped := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		capped[i] = h.truncateAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(capped)}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name)}
}

// truncateAttr caps a single attribute, recursively handling groups.
func (h *TruncatingHandler) truncateAttr(a slog.Attr) slog.Attr {
	// Handle groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		capped := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			capped[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(capped...)}
	}

	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if len(s) > MaxStringLen {
			return slog.String(a.Key, s[:MaxStringLen]+TruncatedMarker)
		}
		return a
	}

	// Slices arrive as KindAny. Render at most MaxListItems entries and
	// summarize the rest as a count.
	if a.Value.Kind() == slog.KindAny {
		if items, ok := a.Value.Any().([]string); ok && len(items) > MaxListItems {
			capped := make([]string, 0, MaxListItems+1)
			capped = append(capped, items[:MaxListItems]...)
			capped = append(capped, fmt.Sprintf("...and %d more", len(items)-MaxListItems))
			return slog.Any(a.Key, capped)
		}
	}

	return a
}

// NewLogger creates a new slog.Logger with attribute truncation.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
//
// Returns a *slog.Logger that can be used with slog.SetDefault() or passed
// to components that accept *slog.Logger.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewTruncatingHandler(textHandler))
}
