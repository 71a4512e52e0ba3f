package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/chimekit/chime/internal/adapters/http/dto"
)

// traceIDFrom returns the active trace ID, or "" when the request is not
// being traced.
func traceIDFrom(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}

	return sc.TraceID().String()
}

// abortWithEnvelope aborts the request with the standard error envelope.
// When the handler has already written a response only the abort happens;
// appending a second body to a half-written response would corrupt it.
func abortWithEnvelope(c *gin.Context, status int, code, message, traceID string) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	resp := dto.NewErrorResponse(code, message)
	resp.TraceID = traceID

	c.AbortWithStatusJSON(status, resp)
}
