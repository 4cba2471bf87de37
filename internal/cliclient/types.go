package cliclient

import "time"

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User represents a user.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	BaseRole     string    `json:"base_role"`
	CustomRoleID *string   `json:"custom_role_id,omitempty"`
	CustomRole   *Role     `json:"custom_role,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserEntry is a user plus whether the caller may manage them.
type UserEntry struct {
	User
	CanManage bool `json:"can_manage"`
}

// Me is the response of /auth/me.
type Me struct {
	User        User     `json:"user"`
	Position    int      `json:"position"`
	Permissions []string `json:"permissions"`
}

// Role represents a custom role.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	Permissions []string  `json:"permissions"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleList is the response of GET /roles.
type RoleList struct {
	Roles             []Role   `json:"roles"`
	ManageableRoleIDs []string `json:"manageable_role_ids"`
	CanReorder        bool     `json:"can_reorder"`
}

// CreateRoleRequest represents a request to create a role.
type CreateRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Color       string   `json:"color,omitempty"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleRequest represents a partial role update.
type UpdateRoleRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Color       *string  `json:"color,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// AssignRoleRequest represents a request to set a user's roles.
type AssignRoleRequest struct {
	BaseRole     string  `json:"base_role"`
	CustomRoleID *string `json:"custom_role_id,omitempty"`
}
