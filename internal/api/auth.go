package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/outpost-social/outpost/internal/models"
)

const userContextKey = "outpost.user"

// TokenSource resolves bearer tokens to users
type TokenSource interface {
	GetByToken(ctx context.Context, token string) (*models.User, error)
}

// Authenticator is bearer-token middleware. Populate attaches the user
// when a valid token is present, Require additionally rejects requests
// without one.
type Authenticator struct {
	tokens TokenSource
}

// NewAuthenticator creates bearer-token middleware
func NewAuthenticator(tokens TokenSource) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Populate resolves the bearer token if present. Read endpoints use it
// so visibility checks can see the caller without requiring one.
func (a *Authenticator) Populate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		user, err := a.tokens.GetByToken(c.Request.Context(), token)
		if err == nil && user != nil && !user.IsBanned {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// Require rejects requests without a valid bearer token
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing access token."})
			return
		}
		user, err := a.tokens.GetByToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			return
		}
		if user == nil || user.IsBanned {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token."})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// currentUser returns the authenticated user, or nil for anonymous
// requests.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
