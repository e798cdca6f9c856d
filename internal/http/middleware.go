package http

import (
	"crypto/subtle"
	nethttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuthMiddleware rejects requests whose Authorization header does not
// carry the expected static token.
func BearerAuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		supplied, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(nethttp.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(token)) != 1 {
			c.AbortWithStatusJSON(nethttp.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			return
		}
		c.Next()
	}
}
