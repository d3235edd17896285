package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/outpost-social/outpost/internal/models"
)

// UserReader loads users by username
type UserReader interface {
	GetByName(ctx context.Context, username string) (*models.User, error)
}

// UserAPI serves public user profiles
type UserAPI struct {
	users UserReader
}

// NewUserAPI creates a new user API
func NewUserAPI(users UserReader) *UserAPI {
	return &UserAPI{users: users}
}

// GetUser handles GET /api/v1/user/:username
func (u *UserAPI) GetUser(c *gin.Context) {
	username := strings.ToLower(strings.TrimPrefix(c.Param("username"), "@"))
	user, err := u.users.GetByName(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil || user.IsBanned {
		respondNotFound(c)
		return
	}
	c.JSON(http.StatusOK, userObject(user))
}
