// Package logging sets up the zerolog logger used across pdmake and carries it
// through a context.Context.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type logKey struct{}

// New creates a logger writing human readable lines to w
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(NewConsoleWriter(w)).Level(level).With().Timestamp().Logger()
}

// WithLogger attaches the given logger to the context
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, logKey{}, logger)
}

// From returns the logger attached to ctx, or a disabled logger
func From(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(logKey{}).(*zerolog.Logger); ok {
			return logger
		}
	}

	nop := zerolog.Nop()
	return &nop
}

// Default returns a logger on stderr at info level
func Default() *zerolog.Logger {
	logger := New(os.Stderr, false)
	return &logger
}
