// Package logging builds the slog loggers shared by the commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log level and an optional rotated log file.
type Options struct {
	Level string
	// File, when set, receives the log output instead of Stdout.
	File string
	// Stdout overrides os.Stdout; used by tests.
	Stdout io.Writer
}

// New returns a text logger writing to stdout or to a rotated file.
func New(opts Options) (*slog.Logger, io.Closer) {
	var (
		w      io.Writer = opts.Stdout
		closer io.Closer = nopCloser{}
	)
	if w == nil {
		w = os.Stdout
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		rotated := &lumberjack.Logger{
			Filename:   filepath.Clean(file),
			MaxSize:    32, // MB
			MaxBackups: 3,
			MaxAge:     14,
			Compress:   true,
		}
		w, closer = rotated, rotated
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})
	return slog.New(handler), closer
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
