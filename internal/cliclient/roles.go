package cliclient

import (
	"context"
	"fmt"
)

// ListRoles returns all roles with the caller's capability flags.
func (c *Client) ListRoles(ctx context.Context) (*RoleList, error) {
	var list RoleList
	if _, err := c.Get(ctx, "/roles", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetRole returns a single role.
func (c *Client) GetRole(ctx context.Context, id string) (*Role, error) {
	var role Role
	if _, err := c.Get(ctx, "/roles/"+id, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// CreateRole creates a role below every existing role.
func (c *Client) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	var role Role
	if _, err := c.Post(ctx, "/roles", req, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole applies a partial update to a role.
func (c *Client) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*Role, error) {
	var role Role
	if _, err := c.Patch(ctx, "/roles/"+id, req, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole deletes a role nobody holds.
func (c *Client) DeleteRole(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/roles/"+id)
	return err
}

// UpdateRolePosition moves a role to position.
func (c *Client) UpdateRolePosition(ctx context.Context, id string, position int) (*Role, error) {
	var role Role
	body := map[string]int{"position": position}
	if _, err := c.Put(ctx, fmt.Sprintf("/roles/%s/position", id), body, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// ListRoleUsers returns the users holding a role.
func (c *Client) ListRoleUsers(ctx context.Context, id string) ([]User, error) {
	var users []User
	if _, err := c.Get(ctx, fmt.Sprintf("/roles/%s/users", id), &users); err != nil {
		return nil, err
	}
	return users, nil
}
