package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// idMiddlewareConfig configures the ID middleware behavior.
type idMiddlewareConfig struct {
	headerName      string
	contextKey      string
	contextEnricher func(ctx context.Context, id string) context.Context
}

// createIDMiddleware is the shared implementation behind the request ID
// and correlation ID middleware: take the header value or mint a UUID,
// stash it in the gin context, echo it on the response.
func createIDMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := headerOrNewID(c, cfg.headerName)

		c.Set(cfg.contextKey, id)
		c.Header(cfg.headerName, id)

		if cfg.contextEnricher != nil {
			c.Request = c.Request.WithContext(
				cfg.contextEnricher(c.Request.Context(), id),
			)
		}

		c.Next()
	}
}

func headerOrNewID(c *gin.Context, header string) string {
	if id := c.GetHeader(header); id != "" {
		return id
	}

	return uuid.New().String()
}

// getIDFromContext extracts an ID from the gin context by key. A missing
// key or a non-string value yields "".
func getIDFromContext(c *gin.Context, key string) string {
	value, ok := c.Get(key)
	if !ok {
		return ""
	}

	id, _ := value.(string)

	return id
}
