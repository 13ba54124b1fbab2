package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/domain/user"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/persistence/models"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	appErrors "github.com/inventra-labs/gatekeeper/internal/shared/errors"
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

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u, err := user.NewUser("mod@inventra.io", "hash", authorization.RoleModerator)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	t.Run("get by email", func(t *testing.T) {
		found, err := repo.GetByEmail(ctx, "mod@inventra.io")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, u.ID(), found.ID())
		assert.Equal(t, authorization.RoleModerator, found.Role())
	})

	t.Run("missing user returns nil", func(t *testing.T) {
		found, err := repo.GetByID(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		dup, err := user.NewUser("mod@inventra.io", "hash", authorization.RoleUser)
		require.NoError(t, err)
		err = repo.Create(ctx, dup)
		assert.True(t, appErrors.IsConflictError(err))
	})

	t.Run("exists with role", func(t *testing.T) {
		ok, err := repo.ExistsWithRole(ctx, authorization.RoleModerator)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsWithRole(ctx, authorization.RoleAdmin)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRolePermissionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRolePermissionRepository(db)
	ctx := context.Background()

	seeded, err := repo.SeedIfEmpty(ctx, permission.DefaultRolePermissions())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = repo.SeedIfEmpty(ctx, permission.DefaultRolePermissions())
	require.NoError(t, err)
	assert.False(t, seeded, "second seed must be a no-op")

	set, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, permission.DefaultRolePermissions(), set)

	t.Run("add is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, authorization.RoleUser, permission.OrderCancel))
		require.NoError(t, repo.Add(ctx, authorization.RoleUser, permission.OrderCancel))

		perms, err := repo.Get(ctx, authorization.RoleUser)
		require.NoError(t, err)
		count := 0
		for _, p := range perms {
			if p == permission.OrderCancel {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Remove(ctx, authorization.RoleUser, permission.OrderCancel))
		require.NoError(t, repo.Remove(ctx, authorization.RoleUser, permission.OrderCancel))

		perms, err := repo.Get(ctx, authorization.RoleUser)
		require.NoError(t, err)
		assert.NotContains(t, perms, permission.OrderCancel)
	})

	t.Run("replace swaps the whole set", func(t *testing.T) {
		require.NoError(t, repo.Replace(ctx, authorization.RoleModerator, []permission.Permission{permission.OrderRead, permission.ProductRead}))

		perms, err := repo.Get(ctx, authorization.RoleModerator)
		require.NoError(t, err)
		assert.Equal(t, []permission.Permission{permission.ProductRead, permission.OrderRead}, perms)
	})

	t.Run("replace with empty set keeps the role", func(t *testing.T) {
		require.NoError(t, repo.Replace(ctx, authorization.RoleUser, nil))

		set, err := repo.List(ctx)
		require.NoError(t, err)
		perms, ok := set[authorization.RoleUser]
		assert.True(t, ok)
		assert.Empty(t, perms)
	})
}
