package permission

import (
	"context"
	"fmt"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// InitPermissions installs the default role permissions into an empty
// store and loads the result into the enforcer.
func InitPermissions(ctx context.Context, repo permission.RolePermissionRepository, enforcer permission.PermissionEnforcer, log logger.Interface) error {
	seeded, err := repo.SeedIfEmpty(ctx, permission.DefaultRolePermissions())
	if err != nil {
		log.Errorw("failed to seed default role permissions", "error", err)
		return fmt.Errorf("failed to seed default role permissions: %w", err)
	}
	if seeded {
		log.Info("default role permissions installed")
	}

	return NewPermissionSync(repo, enforcer, log).SyncToCasbin(ctx)
}
