package handlers

import (
	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/google/uuid"
)

// Request types

type CreateRoleRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Color       string             `json:"color"`
	Permissions []authz.Permission `json:"permissions" binding:"required"`
}

// UpdateRoleRequest is a partial update. Omitted fields are left unchanged.
type UpdateRoleRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Color       *string            `json:"color"`
	Permissions []authz.Permission `json:"permissions"`
}

type UpdatePositionRequest struct {
	Position *int `json:"position" binding:"required"`
}

type AssignRoleRequest struct {
	BaseRole     authz.BaseRole `json:"base_role" binding:"required"`
	CustomRoleID *uuid.UUID     `json:"custom_role_id"`
}

// Response types

// RoleListResponse carries the roles and what the caller may do with them.
// Clients render controls from these flags rather than comparing positions.
type RoleListResponse struct {
	Roles             []models.CustomRole `json:"roles"`
	ManageableRoleIDs []uuid.UUID         `json:"manageable_role_ids"`
	CanReorder        bool                `json:"can_reorder"`
}

type UserWithCapabilities struct {
	models.User
	CanManage bool `json:"can_manage"`
}

type MeResponse struct {
	User        *models.User       `json:"user"`
	Position    int                `json:"position"`
	Permissions []authz.Permission `json:"permissions"`
}
