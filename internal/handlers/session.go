package handlers

import (
	"tutoria/internal/middleware"
	"tutoria/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetUserIDFromSession retrieves the current user ID from the session.
// Returns (0, false) if not authenticated or if the stored value is invalid.
func GetUserIDFromSession(c *gin.Context) (int, bool) {
	session := sessions.Default(c)
	userID := session.Get(middleware.UserIDKey)
	if userID == nil {
		return 0, false
	}
	id, ok := userID.(int)
	if !ok {
		return 0, false
	}
	return id, true
}

// currentUserID reads the user ID placed in the request context by the auth
// middleware, falling back to the session when the middleware did not run.
func currentUserID(c *gin.Context) (int, bool) {
	if v, exists := c.Get(middleware.UserIDKey); exists {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return GetUserIDFromSession(c)
}

// currentRole reads the role placed in the request context by the auth middleware.
func currentRole(c *gin.Context) models.Role {
	if v, exists := c.Get(middleware.RoleKey); exists {
		if role, ok := v.(string); ok {
			return models.Role(role)
		}
	}
	return ""
}
