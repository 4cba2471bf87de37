package handlers

import (
	"net/http"

	"github.com/clubhouse-dev/clubhouse/internal/service"
	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	svc *service.RoleService
}

func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{svc: svc}
}

// ListRoles godoc
// @Summary List custom roles, most senior first
// @Description Includes the ids of roles the caller may manage and whether the caller may reorder roles.
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Success 200 {object} RoleListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	listing, err := h.svc.List(c.Request.Context(), user)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, RoleListResponse{
		Roles:             listing.Roles,
		ManageableRoleIDs: listing.ManageableRoleIDs,
		CanReorder:        listing.CanReorder,
	})
}

// GetRole godoc
// @Summary Get a custom role
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} models.CustomRole
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "role")
	if !ok {
		return
	}

	role, err := h.svc.Get(c.Request.Context(), user, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// CreateRole godoc
// @Summary Create a custom role
// @Description The new role is placed below every existing role.
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param role body CreateRoleRequest true "Role details"
// @Success 201 {object} models.CustomRole
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	role, err := h.svc.Create(c.Request.Context(), user, service.CreateRoleRequest{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Permissions: req.Permissions,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, role)
}

// UpdateRole godoc
// @Summary Update a custom role
// @Description Position is changed through PUT /roles/{id}/position.
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param role body UpdateRoleRequest true "Fields to change"
// @Success 200 {object} models.CustomRole
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /roles/{id} [patch]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "role")
	if !ok {
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	role, err := h.svc.Update(c.Request.Context(), user, id, service.UpdateRoleRequest{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Permissions: req.Permissions,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// DeleteRole godoc
// @Summary Delete a custom role
// @Description Fails with 409 while any user holds the role.
// @Tags roles
// @Security BearerAuth
// @Param id path string true "Role ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "role")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), user, id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdatePosition godoc
// @Summary Move a custom role to a new position
// @Description Roles between the old and new position shift by one so positions stay unique.
// @Tags roles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param position body UpdatePositionRequest true "New position"
// @Success 200 {object} models.CustomRole
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /roles/{id}/position [put]
func (h *RoleHandler) UpdatePosition(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "role")
	if !ok {
		return
	}

	var req UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "position must be an integer"})
		return
	}

	role, err := h.svc.UpdatePosition(c.Request.Context(), user, id, *req.Position)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, role)
}

// GetRoleUsers godoc
// @Summary List users holding a custom role
// @Tags roles
// @Security BearerAuth
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {array} models.User
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /roles/{id}/users [get]
func (h *RoleHandler) GetRoleUsers(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "role")
	if !ok {
		return
	}

	users, err := h.svc.UsersForRole(c.Request.Context(), user, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
