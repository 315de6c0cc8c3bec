// Package logging builds the per-run structured logger. Nothing here touches
// slog's process-wide default; callers pass the returned logger explicitly.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Supported handler formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls logger construction.
type Options struct {
	Debug  bool   // debug level and source locations
	Format string // FormatText or FormatJSON; empty means text
}

// ParseFormat normalizes and validates a --log-format value.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format %q: must be %q or %q", s, FormatText, FormatJSON)
	}
}

// New creates a logger writing to w. It does not set the global logger.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.Debug,
	}

	var handler slog.Handler
	if opts.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(handler)
}

// NewRunID returns a fresh identifier used to correlate one run's records.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun tags every record of logger with runID.
func WithRun(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With("run_id", runID)
}

// Component returns a child logger for a named component.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("component", name)
}
