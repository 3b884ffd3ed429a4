package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Canonical attribute keys shared by every package that logs.
const (
	KeyRunID    = "run_id"
	KeyPackage  = "package"
	KeyStatus   = "status"
	KeyReason   = "reason"
	KeyPath     = "path"
	KeyError    = "error"
	KeyDuration = "duration"
)

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildLogger creates a structured logger at the given level. Format is
// "text" (default) or "json"; a nil writer means stderr.
func BuildLogger(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
