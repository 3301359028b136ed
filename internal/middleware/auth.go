package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
	"github.com/supertrooper/backend/pkg/jwt"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1. Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader {
				abort(c, http.StatusUnauthorized, "Malformed authorization header.")
				return
			}
		}

		// 2. Query param, for EventSource clients that cannot set headers
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			abort(c, http.StatusUnauthorized, "Missing token.")
			return
		}

		claims, err := jwt.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			if errors.Is(err, jwt.ErrExpired) {
				abort(c, http.StatusUnauthorized, "Token expired, please sign in again.")
			} else {
				abort(c, http.StatusUnauthorized, "Invalid token.")
			}
			return
		}

		var user model.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			abort(c, http.StatusUnauthorized, "User no longer exists.")
			return
		}

		c.Set("userID", user.ID)
		c.Set("userRole", user.Role)
		c.Next()
	}
}

func GetCurrentUserID(c *gin.Context) uint {
	id, _ := c.Get("userID")
	v, _ := id.(uint)
	return v
}

func GetCurrentUserRole(c *gin.Context) model.Role {
	role, _ := c.Get("userRole")
	v, _ := role.(model.Role)
	return v
}

func GetCurrentUserIsAdmin(c *gin.Context) bool {
	return GetCurrentUserRole(c) == model.RoleAdmin
}
