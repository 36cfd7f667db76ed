package internal

import (
	"io"
	"log/slog"
)

// NewLogger builds the process logger. Development gets text output for the
// terminal; every other environment gets JSON for log shipping. The level
// accepts anything slog.Level parses ("debug", "WARN", "info+2") and falls
// back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "samplebase")
}
