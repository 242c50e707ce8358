// Package logging builds the process logger from configuration.
//
// Logs go to stderr so command output on stdout stays scriptable. When a
// log file is configured, output also lands there, with rotation handled
// by lumberjack.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/glidekit/glidesync/internal/config"
)

// Setup builds a logger from the logging section of the configuration.
// The returned closer owns the rotated log file and is nil when logging
// only to stderr.
func Setup(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	writer, closer := buildWriter(cfg)
	handler := buildHandler(writer, parseLevel(cfg.Level), cfg.Format)
	return slog.New(handler), closer
}

// parseLevel converts a string to slog.Level, defaulting to Info.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildWriter creates the io.Writer for log output. If a file path is
// configured, it returns a MultiWriter (stderr + lumberjack) and the
// lumberjack logger as the closer.
func buildWriter(cfg config.LoggingConfig) (io.Writer, io.Closer) {
	if cfg.File == "" {
		return os.Stderr, nil
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 28
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   cfg.Compress,
	}

	return io.MultiWriter(os.Stderr, lj), lj
}

// buildHandler creates a slog.Handler with the given writer, level, and format.
func buildHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
