// Package auth authenticates API requests with bearer tokens. Tokens are
// opaque per-user secrets issued out of band; there is no session or
// browser flow here.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ndemidov/liber/internal/entities"
)

// ContextKeyUserID is the gin context key holding the authenticated user's ID.
const ContextKeyUserID = "auth_user_id"

// UserResolver looks up the user owning a token.
type UserResolver interface {
	GetByToken(token string) (*entities.User, error)
}

// TokenMiddleware returns a handler that rejects requests without a valid
// "Authorization: Bearer <token>" header and otherwise stores the owning
// user's ID in the context.
func TokenMiddleware(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		user, err := users.GetByToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
			})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request was not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// bearerToken extracts the token from "Bearer <token>", or "" if absent.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
