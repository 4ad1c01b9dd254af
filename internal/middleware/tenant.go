package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/school-food-safety/backend/internal/models"
)

// ReadOnlyGuard lets viewers through on safe methods only. Every other role
// may write.
func ReadOnlyGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if RoleFrom(c) == models.RoleViewer {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: read-only account"})
			c.Abort()
			return
		}

		c.Next()
	}
}
