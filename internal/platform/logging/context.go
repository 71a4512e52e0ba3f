package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// defaultLogger backs FromContext when a request carries no logger of its
// own. SetDefault replaces it at daemon startup.
var defaultLogger = slog.Default()

// FromContext returns the logger carried by ctx, falling back to the
// process default. Safe to call with a nil context.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}

	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}

	return defaultLogger
}

// WithContext stores a logger in the context.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// withField returns a context whose logger carries an extra attribute.
func withField(ctx context.Context, key, value string) context.Context {
	return WithContext(ctx, FromContext(ctx).With(slog.String(key, value)))
}

// WithRequestID enriches the context logger with a request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withField(ctx, "request_id", requestID)
}

// WithTraceID enriches the context logger with a trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return withField(ctx, "trace_id", traceID)
}

// WithCorrelationID enriches the context logger with a correlation ID.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return withField(ctx, "correlation_id", correlationID)
}

// SetDefault installs the logger used when no logger is in context, and
// mirrors it into slog's own default.
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
	slog.SetDefault(logger)
}
