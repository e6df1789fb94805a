// Package observability provides structured logging for the memory engine.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// StructuredHandler is a JSON slog.Handler for structured logging.
type StructuredHandler struct {
	out    io.Writer
	attrs  []slog.Attr
	groups []string
}

// NewStructuredHandler creates a new structured JSON handler writing to stdout.
func NewStructuredHandler() *StructuredHandler {
	return &StructuredHandler{
		out:    os.Stdout,
		attrs:  []slog.Attr{},
		groups: []string{},
	}
}

// Enabled always returns true for structured handler.
func (h *StructuredHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle formats and outputs the log record as JSON.
func (h *StructuredHandler) Handle(ctx context.Context, record slog.Record) error {
	logEntry := make(map[string]interface{})

	logEntry["timestamp"] = record.Time.Format(time.RFC3339)
	logEntry["level"] = record.Level.String()
	logEntry["message"] = record.Message

	// Add source location if available
	if record.PC != 0 {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		logEntry["source"] = map[string]interface{}{
			"function": f.Function,
			"file":     f.File,
			"line":     f.Line,
		}
	}

	record.Attrs(func(attr slog.Attr) bool {
		logEntry[attr.Key] = attr.Value.Any()
		return true
	})
	for _, attr := range h.attrs {
		logEntry[attr.Key] = attr.Value.Any()
	}

	data, err := json.Marshal(logEntry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	_, err = fmt.Fprintln(h.out, string(data))
	return err
}

// WithAttrs returns a new handler with additional attributes.
func (h *StructuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)

	return &StructuredHandler{
		out:    h.out,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

// WithGroup returns a new handler with the given group.
func (h *StructuredHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	return &StructuredHandler{
		out:    h.out,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// ConfigureLogging installs the default logger for the process.
func ConfigureLogging(level slog.Level, structured bool) {
	var handler slog.Handler
	if structured {
		handler = NewStructuredHandler()
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	slog.SetDefault(slog.New(handler))
}

// EngineLogger returns a logger tagged with the engine component name.
func EngineLogger(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
