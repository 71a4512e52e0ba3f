package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chimekit/chime/internal/platform/logging"
)

// probePrefix marks operational endpoints that are excluded from request
// logging. Probes fire every few seconds and would drown the play log.
const probePrefix = "/-/"

// Logging returns middleware that logs request start and completion with
// method, path, status and latency.
func Logging(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, probePrefix) {
			c.Next()
			return
		}

		start := time.Now()
		path := fullPath(c)

		// The context logger already carries request_id and correlation_id.
		log := logging.FromContext(c.Request.Context())

		log.Info("request started",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		log.Log(c.Request.Context(), levelFor(status), "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func fullPath(c *gin.Context) string {
	if q := c.Request.URL.RawQuery; q != "" {
		return c.Request.URL.Path + "?" + q
	}

	return c.Request.URL.Path
}

// levelFor maps a response status to a log level so that client and
// server errors stand out in the stream.
func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
