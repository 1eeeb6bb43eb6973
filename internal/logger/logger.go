// Package logger builds the log/slog logger shared by every devserve
// component.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewStderr creates a logger that writes to stderr.
func NewStderr(verbose bool) *slog.Logger {
	return New(os.Stderr, verbose)
}

// New creates a text logger writing to out. Debug records are emitted only
// when verbose is set. Timestamps are dropped: lines are read live in a
// terminal next to the server's own output.
func New(out io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}
