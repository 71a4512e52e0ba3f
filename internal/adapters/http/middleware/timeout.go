package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chimekit/chime/internal/adapters/http/dto"
	"github.com/chimekit/chime/internal/platform/logging"
)

// Timeout returns middleware that enforces a request deadline and writes
// a timeout response when it expires. It cannot forcibly stop a handler
// that ignores context cancellation; the goroutine keeps running until
// the handler returns on its own.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		finished := make(chan struct{})

		go func() {
			defer close(finished)
			c.Next()
		}()

		select {
		case <-finished:
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return
			}

			traceID := traceIDFrom(ctx)

			logging.FromContext(ctx).Warn("request timeout",
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.Duration("timeout", timeout),
				slog.String("trace_id", traceID),
			)

			abortWithEnvelope(c,
				http.StatusServiceUnavailable,
				dto.ErrorCodeTimeout,
				"request timeout exceeded",
				traceID,
			)
		}
	}
}

// SimpleTimeout only sets the context deadline and leaves the timeout
// response to the handler. Awaited plays use this: the play coordinator
// observes the deadline, cancels the sound, and reports the error itself.
func SimpleTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
