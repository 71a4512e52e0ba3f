package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chimekit/chime/internal/adapters/http/dto"
	"github.com/chimekit/chime/internal/platform/config"
)

// defaultAPIKeyHeader is used when the header name is not configured.
const defaultAPIKeyHeader = "X-API-Key"

// RequireAPIKey returns middleware that rejects requests not carrying the
// configured API key. The key is accepted either in the configured header
// or as a bearer token. Comparison is constant time.
func RequireAPIKey(cfg *config.AuthConfig) gin.HandlerFunc {
	header := defaultAPIKeyHeader
	if cfg.APIKeyHeader != "" {
		header = cfg.APIKeyHeader
	}

	return func(c *gin.Context) {
		key := presentedKey(c, header)
		if key == "" {
			dto.AbortWithErrorCode(c, dto.ErrorCodeUnauthorized, "authentication required")

			return
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIKey)) != 1 {
			dto.AbortWithErrorCode(c, dto.ErrorCodeForbidden, "invalid API key")

			return
		}

		c.Next()
	}
}

// presentedKey extracts the API key from the request: the dedicated
// header wins, then an Authorization bearer token.
func presentedKey(c *gin.Context, header string) string {
	if key := c.GetHeader(header); key != "" {
		return key
	}

	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}
