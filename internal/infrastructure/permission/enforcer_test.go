package permission

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/database"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/persistence/models"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/repository"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/config"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestEnforcer_Rebuild(t *testing.T) {
	db := setupTestDB(t)
	enforcer, err := NewEnforcer(db, "", logger.NewNop())
	require.NoError(t, err)

	allowed, err := enforcer.Enforce("ADMIN", "permission", "manage")
	require.NoError(t, err)
	assert.False(t, allowed, "empty policy denies everything")

	require.NoError(t, enforcer.Rebuild(permission.DefaultRolePermissions()))

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{"ADMIN", "permission", "manage", true},
		{"MODERATOR", "product", "create", true},
		{"MODERATOR", "order", "refund", false},
		{"USER", "product", "read", true},
		{"USER", "product", "delete", false},
		{"GUEST", "product", "read", false},
	}
	for _, tt := range tests {
		allowed, err := enforcer.Enforce(tt.role, tt.resource, tt.action)
		require.NoError(t, err)
		assert.Equal(t, tt.want, allowed, "%s %s:%s", tt.role, tt.resource, tt.action)
	}

	t.Run("rebuild replaces the previous policy", func(t *testing.T) {
		require.NoError(t, enforcer.Rebuild(permission.RolePermissionSet{
			authorization.RoleUser: {permission.OrderRead},
		}))

		allowed, err := enforcer.Enforce("ADMIN", "permission", "manage")
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 1, enforcer.PolicyCount())
	})

	t.Run("policy survives reload from the database", func(t *testing.T) {
		reloaded, err := NewEnforcer(db, DefaultModel, logger.NewNop())
		require.NoError(t, err)

		allowed, err := reloaded.Enforce("USER", "order", "read")
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestInitPermissions(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewRolePermissionRepository(db)
	enforcer, err := NewEnforcer(db, "", logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, InitPermissions(context.Background(), repo, enforcer, logger.NewNop()))

	allowed, err := enforcer.Enforce("ADMIN", "analytics", "export")
	require.NoError(t, err)
	assert.True(t, allowed)

	// A changed mapping must survive a restart.
	require.NoError(t, repo.Remove(context.Background(), authorization.RoleUser, permission.ProductRead))
	require.NoError(t, InitPermissions(context.Background(), repo, enforcer, logger.NewNop()))

	allowed, err = enforcer.Enforce("USER", "product", "read")
	require.NoError(t, err)
	assert.False(t, allowed)
}

// within fails the test instead of hanging when fn blocks on the
// single sqlite connection.
func within(t *testing.T, d time.Duration, fn func() error) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(d):
		t.Fatalf("did not finish within %s", d)
	}
}

func TestEnforcer_RebuildOnSQLiteConnection(t *testing.T) {
	db, err := database.Open(&config.DatabaseConfig{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "gatekeeper.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.AutoMigrate(models.All()...))

	enforcer, err := NewEnforcer(db, "", logger.NewNop())
	require.NoError(t, err)

	within(t, 10*time.Second, func() error {
		return enforcer.Rebuild(permission.DefaultRolePermissions())
	})
	full := enforcer.PolicyCount()
	assert.Positive(t, full)

	within(t, 10*time.Second, func() error {
		return enforcer.Rebuild(permission.RolePermissionSet{
			authorization.RoleAdmin: {permission.PermissionManage},
			authorization.RoleUser:  {permission.ProductRead, permission.ProductRead},
		})
	})
	assert.Equal(t, 2, enforcer.PolicyCount(), "duplicates collapse into one rule")

	allowed, err := enforcer.Enforce("USER", "product", "read")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = enforcer.Enforce("MODERATOR", "product", "create")
	require.NoError(t, err)
	assert.False(t, allowed)

	var rows int64
	require.NoError(t, db.Table("casbin_rule").Count(&rows).Error)
	assert.Equal(t, int64(2), rows, "stored rules match the cached policy")

	within(t, 10*time.Second, func() error {
		return enforcer.Rebuild(permission.RolePermissionSet{})
	})
	assert.Zero(t, enforcer.PolicyCount())
}
