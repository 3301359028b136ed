package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin lets only ADMIN users through. It runs after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetCurrentUserIsAdmin(c) {
			abort(c, http.StatusForbidden, "Insufficient permissions.")
			return
		}
		c.Next()
	}
}
