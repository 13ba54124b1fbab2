package apiclient

import (
	"context"
	"fmt"
	"net/http"
)

// RolePermissions lists every role with its permissions.
func (c *Client) RolePermissions(ctx context.Context) (map[string][]string, error) {
	var roles map[string][]string
	if err := c.Do(ctx, http.MethodGet, "/permissions/roles", nil, &roles); err != nil {
		return nil, fmt.Errorf("get role permissions: %w", err)
	}
	return roles, nil
}

// AvailablePermissions lists the permission catalog.
func (c *Client) AvailablePermissions(ctx context.Context) ([]string, error) {
	var data struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.Do(ctx, http.MethodGet, "/permissions/available", nil, &data); err != nil {
		return nil, fmt.Errorf("get available permissions: %w", err)
	}
	return data.Permissions, nil
}

// ReplaceRolePermissions replaces the full permission set of role.
func (c *Client) ReplaceRolePermissions(ctx context.Context, role string, perms []string) error {
	if perms == nil {
		perms = []string{}
	}
	body := map[string][]string{"permissions": perms}
	if err := c.Do(ctx, http.MethodPost, "/permissions/roles/"+role, body, nil); err != nil {
		return fmt.Errorf("replace role permissions: %w", err)
	}
	return nil
}

// AddPermission grants one permission to role.
func (c *Client) AddPermission(ctx context.Context, role, perm string) error {
	body := map[string]string{"role": role, "permission": perm}
	if err := c.Do(ctx, http.MethodPost, "/permissions/add", body, nil); err != nil {
		return fmt.Errorf("add permission: %w", err)
	}
	return nil
}

// RemovePermission revokes one permission from role.
func (c *Client) RemovePermission(ctx context.Context, role, perm string) error {
	body := map[string]string{"role": role, "permission": perm}
	if err := c.Do(ctx, http.MethodDelete, "/permissions/remove", body, nil); err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	return nil
}

// RefreshPermissionCache asks the backend to rebuild its authorization cache.
func (c *Client) RefreshPermissionCache(ctx context.Context) error {
	if err := c.Do(ctx, http.MethodPost, "/permissions/refresh-cache", nil, nil); err != nil {
		return fmt.Errorf("refresh permission cache: %w", err)
	}
	return nil
}
