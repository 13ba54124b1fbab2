package permission

import (
	"context"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

// RolePermissionRepository persists role-to-permission assignments. Add and
// Remove are idempotent.
type RolePermissionRepository interface {
	List(ctx context.Context) (RolePermissionSet, error)
	Get(ctx context.Context, role authorization.Role) ([]Permission, error)
	Replace(ctx context.Context, role authorization.Role, perms []Permission) error
	Add(ctx context.Context, role authorization.Role, p Permission) error
	Remove(ctx context.Context, role authorization.Role, p Permission) error
	SeedIfEmpty(ctx context.Context, defaults RolePermissionSet) (bool, error)
}
