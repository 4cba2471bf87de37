package service

import (
	"github.com/clubhouse-dev/clubhouse/internal/authz"
	"github.com/clubhouse-dev/clubhouse/internal/models"
	"github.com/google/uuid"
)

// CreateRoleRequest holds parameters for creating a custom role.
type CreateRoleRequest struct {
	Name        string
	Description string
	Color       string
	Permissions []authz.Permission
}

// UpdateRoleRequest is a partial update; nil fields are left unchanged.
// Position is not part of it: reorders go through UpdatePosition.
type UpdateRoleRequest struct {
	Name        *string
	Description *string
	Color       *string
	Permissions []authz.Permission // nil leaves permissions unchanged
}

// AssignRoleRequest sets a user's base role and custom role together.
// A nil CustomRoleID removes the user's custom role.
type AssignRoleRequest struct {
	BaseRole     authz.BaseRole
	CustomRoleID *uuid.UUID
}

// RoleListing is returned by RoleService.List. The capability fields are
// computed here so that clients render controls without re-deriving rank.
type RoleListing struct {
	Roles             []models.CustomRole
	ManageableRoleIDs []uuid.UUID
	CanReorder        bool
}

// UserEntry pairs a user with whether the requesting actor may manage them.
type UserEntry struct {
	User      models.User
	CanManage bool
}
