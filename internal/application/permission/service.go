// Package permission manages the role-to-permission mapping and the
// authorization cache built from it.
package permission

import (
	"context"
	"fmt"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	appErrors "github.com/inventra-labs/gatekeeper/internal/shared/errors"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// Service writes only to the repository. Enforcement keeps using the
// previous policy until RefreshCache runs.
type Service struct {
	repo     permission.RolePermissionRepository
	enforcer permission.PermissionEnforcer
	logger   logger.Interface
}

func NewService(
	repo permission.RolePermissionRepository,
	enforcer permission.PermissionEnforcer,
	logger logger.Interface,
) *Service {
	return &Service{
		repo:     repo,
		enforcer: enforcer,
		logger:   logger,
	}
}

func (s *Service) ListRolePermissions(ctx context.Context) (permission.RolePermissionSet, error) {
	set, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	return set, nil
}

func (s *Service) AvailablePermissions() []permission.Permission {
	return permission.Catalog()
}

func (s *Service) ReplaceRolePermissions(ctx context.Context, roleName string, perms []string) error {
	role, err := parseRole(roleName)
	if err != nil {
		return err
	}

	list := make([]permission.Permission, len(perms))
	for i, p := range perms {
		list[i] = permission.Permission(p)
	}
	if err := permission.Validate(list); err != nil {
		return appErrors.NewValidationError("invalid permissions", err.Error())
	}
	if role.IsAdmin() && !containsPermission(list, permission.PermissionManage) {
		return lockoutError()
	}

	if err := s.repo.Replace(ctx, role, list); err != nil {
		return err
	}
	s.logger.Infow("role permissions replaced", "role", role, "count", len(list))
	return nil
}

func (s *Service) AddPermission(ctx context.Context, roleName, perm string) error {
	role, p, err := parseAssignment(roleName, perm)
	if err != nil {
		return err
	}
	if err := s.repo.Add(ctx, role, p); err != nil {
		return err
	}
	s.logger.Infow("permission added to role", "role", role, "permission", p)
	return nil
}

func (s *Service) RemovePermission(ctx context.Context, roleName, perm string) error {
	role, p, err := parseAssignment(roleName, perm)
	if err != nil {
		return err
	}
	if role.IsAdmin() && p == permission.PermissionManage {
		return lockoutError()
	}
	if err := s.repo.Remove(ctx, role, p); err != nil {
		return err
	}
	s.logger.Infow("permission removed from role", "role", role, "permission", p)
	return nil
}

// RefreshCache rebuilds the enforcer policy from the stored mapping.
func (s *Service) RefreshCache(ctx context.Context) error {
	set, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load role permissions: %w", err)
	}
	if err := s.enforcer.Rebuild(set); err != nil {
		return fmt.Errorf("failed to rebuild permission cache: %w", err)
	}
	return nil
}

// Check reports whether role holds perm according to the cached policy.
func (s *Service) Check(role authorization.Role, perm permission.Permission) (bool, error) {
	resource, action, err := perm.Split()
	if err != nil {
		return false, appErrors.NewValidationError("invalid permission", err.Error())
	}
	return s.enforcer.Enforce(string(role), resource.String(), action.String())
}

func parseRole(name string) (authorization.Role, error) {
	role, err := authorization.ParseRole(name)
	if err != nil {
		return "", appErrors.NewValidationError("invalid role", err.Error())
	}
	return role, nil
}

func parseAssignment(roleName, perm string) (authorization.Role, permission.Permission, error) {
	role, err := parseRole(roleName)
	if err != nil {
		return "", "", err
	}
	p := permission.Permission(perm)
	if !permission.IsKnown(p) {
		return "", "", appErrors.NewValidationError("invalid permission", fmt.Sprintf("unknown permission %q", perm))
	}
	return role, p, nil
}

func containsPermission(list []permission.Permission, p permission.Permission) bool {
	for _, held := range list {
		if held == p {
			return true
		}
	}
	return false
}

func lockoutError() error {
	return appErrors.NewValidationError("ADMIN must keep permission:manage",
		"removing it would lock every administrator out of permission management")
}
