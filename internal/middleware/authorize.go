package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuth aborts requests whose bearer token did not resolve to a
// principal. Attached only to routes that always need a caller identity,
// such as logout.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentPrincipal(c).Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
