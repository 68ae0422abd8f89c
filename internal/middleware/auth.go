// Package middleware provides authentication and authorization middleware for the Gin web framework.
package middleware

import (
	"net/http"

	"tutoria/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session keys for storing user information
const (
	// UserIDKey is the key used to store user ID in session
	UserIDKey = "user_id"
	// UsernameKey is the key used to store username in session
	UsernameKey = "username"
	// RoleKey is the key used to store the user role in session
	RoleKey = "role"
)

func abortUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "Authentication required",
		"code":  "UNAUTHORIZED",
	})
	c.Abort()
}

// sessionUser pulls the identity stored by the login handler out of the
// session. Returns ok=false when any piece is missing or malformed.
func sessionUser(c *gin.Context) (userID int, username, role string, ok bool) {
	session := sessions.Default(c)

	rawID := session.Get(UserIDKey)
	if rawID == nil {
		return 0, "", "", false
	}
	userID, idOK := rawID.(int)
	if !idOK {
		// JSON numbers round-trip through some session stores as float64
		idFloat, floatOK := rawID.(float64)
		if !floatOK {
			return 0, "", "", false
		}
		userID = int(idFloat)
	}

	rawName := session.Get(UsernameKey)
	username, nameOK := rawName.(string)
	if !nameOK || username == "" {
		return 0, "", "", false
	}

	rawRole := session.Get(RoleKey)
	role, _ = rawRole.(string)

	return userID, username, role, true
}

// RequireAuth returns a middleware that requires authentication
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, username, role, ok := sessionUser(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		// Store user info in context for handlers to use
		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, username)
		c.Set(RoleKey, role)

		c.Next()
	}
}

// RequireTeacher returns a middleware that requires authentication and the
// teacher role. The role is taken from the session as written at login.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, username, role, ok := sessionUser(c)
		if !ok {
			abortUnauthorized(c)
			return
		}

		if models.Role(role) != models.RoleTeacher {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Teacher access required",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UsernameKey, username)
		c.Set(RoleKey, role)

		c.Next()
	}
}
