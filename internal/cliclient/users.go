package cliclient

import (
	"context"
	"fmt"
)

// ListUsers returns every user with the caller's can_manage flag.
func (c *Client) ListUsers(ctx context.Context) ([]UserEntry, error) {
	var users []UserEntry
	if _, err := c.Get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AssignRole sets a user's base role and custom role.
func (c *Client) AssignRole(ctx context.Context, userID string, req AssignRoleRequest) (*User, error) {
	var user User
	if _, err := c.Put(ctx, fmt.Sprintf("/users/%s/role", userID), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
