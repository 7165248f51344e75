// Package util provides shared helpers for logging, retries, rate limiting
// and trading-day arithmetic.
package util

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Unrecognised strings yield info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// NewLogger creates a JSON logger on stdout at the specified level.
func NewLogger(level string) *slog.Logger {
	return newJSONLogger(os.Stdout, level)
}

// FileLogOptions configures NewFileLogger.
type FileLogOptions struct {
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// NewFileLogger creates a JSON logger writing to a size-rotated file. The
// returned closer releases the file. It is used by full-screen programs
// where stdout belongs to the terminal UI.
func NewFileLogger(opts FileLogOptions) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, nil, err
	}
	w := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     14,
		Compress:   true,
	}
	return newJSONLogger(w, opts.Level), w, nil
}

func newJSONLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// SetDefault configures the provided logger as the default slog logger.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
