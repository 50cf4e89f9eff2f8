// Package ctxlog carries a slog.Logger through context.Context so the
// engine's entry points can log without a package-level logger.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported to keep this context key private to the package.
type key struct{}

var loggerKey = key{}

// WithLogger returns a context carrying the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from the context, falling back to
// slog.Default for contexts assembled outside the engine.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
