package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const OpsTokenHeader = "X-Ops-Token"

// OpsTokenMiddleware guards operational endpoints with a shared token. An
// empty configured token disables the group entirely.
func OpsTokenMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "ops endpoints are disabled"})
			return
		}
		got := c.GetHeader(OpsTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid ops token"})
			return
		}
		c.Next()
	}
}
