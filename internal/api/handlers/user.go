package handlers

import (
	"net/http"

	"github.com/clubhouse-dev/clubhouse/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ListUsers godoc
// @Summary List users
// @Description Each entry says whether the caller may manage that user.
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} UserWithCapabilities
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	entries, err := h.svc.List(c.Request.Context(), user)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := make([]UserWithCapabilities, len(entries))
	for i, e := range entries {
		resp[i] = UserWithCapabilities{User: e.User, CanManage: e.CanManage}
	}
	c.JSON(http.StatusOK, resp)
}

// AssignRole godoc
// @Summary Set a user's base role and custom role
// @Description Omitting custom_role_id removes the user's custom role.
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param assignment body AssignRoleRequest true "Roles to assign"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/role [put]
func (h *UserHandler) AssignRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "user")
	if !ok {
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	updated, err := h.svc.AssignRole(c.Request.Context(), user, id, service.AssignRoleRequest{
		BaseRole:     req.BaseRole,
		CustomRoleID: req.CustomRoleID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
