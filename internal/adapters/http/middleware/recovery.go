package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/chimekit/chime/internal/adapters/http/dto"
	"github.com/chimekit/chime/internal/platform/logging"
)

// Recovery returns middleware that turns a handler panic into a logged
// 500 with the standard error envelope. Apply it first in the chain.
// The panic value never reaches the response body.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				reportPanic(c, r)
			}
		}()

		c.Next()
	}
}

func reportPanic(c *gin.Context, value any) {
	reqCtx := c.Request.Context()
	traceID := traceIDFrom(reqCtx)

	logging.FromContext(reqCtx).Error("panic recovered",
		slog.Any("error", value),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("trace_id", traceID),
		slog.String("stack", string(debug.Stack())),
	)

	abortWithEnvelope(c,
		http.StatusInternalServerError,
		dto.ErrorCodeInternal,
		"an internal error occurred",
		traceID,
	)
}
