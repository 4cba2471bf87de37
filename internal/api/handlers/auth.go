package handlers

import (
	"errors"
	"net/http"

	"github.com/clubhouse-dev/clubhouse/internal/audit"
	"github.com/clubhouse-dev/clubhouse/internal/auth"
	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authenticator checks credentials and issues a bearer token.
type Authenticator interface {
	Login(username, password string) (*auth.LoginResponse, error)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body auth.LoginRequest true "Login credentials"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func Login(authenticator Authenticator, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}

		resp, err := authenticator.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				audit.LogAction(db, uuid.Nil, audit.ActionLoginFailed, "user:"+req.Username, map[string]interface{}{
					"ip": c.ClientIP(),
				})
				c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}

		audit.LogAction(db, resp.User.ID, audit.ActionLogin, audit.UserResource(resp.User.ID), map[string]interface{}{
			"ip": c.ClientIP(),
		})
		c.JSON(http.StatusOK, resp)
	}
}

// GetCurrentUser godoc
// @Summary Get current user
// @Description Get the currently authenticated user with their rank and effective permissions
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func GetCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	actor := user.Actor()
	c.JSON(http.StatusOK, MeResponse{
		User:        user,
		Position:    authz.Position(actor),
		Permissions: authz.EffectivePermissions(actor),
	})
}
