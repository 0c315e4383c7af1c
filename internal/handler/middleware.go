package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth guards the mutating routes, POST /api/chat and POST /api/refresh,
// with the X-API-Key header. A missing header is 401 and a wrong one 403, both
// in the error envelope. An empty key leaves the routes open.
func APIKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if provided == "" {
			fail(c, http.StatusUnauthorized, "missing X-API-Key header")
			return
		}
		if provided != key {
			fail(c, http.StatusForbidden, "invalid API key")
			return
		}
		c.Next()
	}
}
