package permission

import (
	"context"
	"fmt"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// PermissionSync copies the stored role permissions into the enforcer.
type PermissionSync struct {
	repo     permission.RolePermissionRepository
	enforcer permission.PermissionEnforcer
	logger   logger.Interface
}

func NewPermissionSync(repo permission.RolePermissionRepository, enforcer permission.PermissionEnforcer, logger logger.Interface) *PermissionSync {
	return &PermissionSync{
		repo:     repo,
		enforcer: enforcer,
		logger:   logger,
	}
}

func (s *PermissionSync) SyncToCasbin(ctx context.Context) error {
	set, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load role permissions: %w", err)
	}

	if err := s.enforcer.Rebuild(set); err != nil {
		return fmt.Errorf("failed to rebuild permission cache: %w", err)
	}

	s.logger.Infow("permissions synced to casbin", "roles", len(set))
	return nil
}
