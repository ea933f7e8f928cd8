package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"roombooking-backend/services"
)

// CurrentUserKey is the gin context key the authenticated user is stored under.
const CurrentUserKey = "currentUser"

// RequireAuth validates the Bearer token from the Authorization header and
// stores the matching user in the request context.
func RequireAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "error.unauthorized", "message": "missing bearer token"},
			})
			return
		}

		user, err := auth.FindBySessionToken(token)
		if err != nil {
			if errors.Is(err, services.ErrAccessDenied) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": gin.H{"code": "error.accessDenied", "message": "account is locked"},
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "error.unauthorized", "message": "invalid or expired token"},
			})
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}
