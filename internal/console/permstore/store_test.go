package permstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inventra-labs/gatekeeper/internal/console/apiclient"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) RolePermissions(ctx context.Context) (map[string][]string, error) {
	args := m.Called(ctx)
	roles, _ := args.Get(0).(map[string][]string)
	return roles, args.Error(1)
}

func (m *MockAPI) AvailablePermissions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	perms, _ := args.Get(0).([]string)
	return perms, args.Error(1)
}

func (m *MockAPI) ReplaceRolePermissions(ctx context.Context, role string, perms []string) error {
	return m.Called(ctx, role, perms).Error(0)
}

func (m *MockAPI) AddPermission(ctx context.Context, role, perm string) error {
	return m.Called(ctx, role, perm).Error(0)
}

func (m *MockAPI) RemovePermission(ctx context.Context, role, perm string) error {
	return m.Called(ctx, role, perm).Error(0)
}

func (m *MockAPI) RefreshPermissionCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var forbidden = &apiclient.APIError{Status: http.StatusForbidden, Type: "forbidden", Message: "insufficient permissions"}

func TestStore_Fetch(t *testing.T) {
	api := new(MockAPI)
	ctx := context.Background()
	roles := map[string][]string{"ADMIN": {"permission:manage"}, "USER": {}}
	api.On("RolePermissions", ctx).Return(roles, nil)
	api.On("AvailablePermissions", ctx).Return([]string{"permission:read", "permission:manage"}, nil)

	s := New(api, logger.NewNop())
	require.NoError(t, s.Fetch(ctx))
	require.NoError(t, s.FetchCatalog(ctx))

	assert.Equal(t, roles, s.Roles())
	assert.Equal(t, []string{"ADMIN", "USER"}, s.RoleNames())
	assert.Equal(t, []string{"permission:read", "permission:manage"}, s.Catalog())

	// returned copies do not alias the store
	s.Roles()["ADMIN"][0] = "changed"
	assert.Equal(t, "permission:manage", s.Roles()["ADMIN"][0])
}

func TestStore_EmptyRoleKeepsEmptySet(t *testing.T) {
	api := new(MockAPI)
	ctx := context.Background()
	api.On("RolePermissions", ctx).Return(map[string][]string{"GUEST": nil, "USER": {}}, nil)

	s := New(api, logger.NewNop())
	require.NoError(t, s.Fetch(ctx))

	roles := s.Roles()
	for _, role := range []string{"GUEST", "USER"} {
		require.Contains(t, roles, role)
		assert.NotNil(t, roles[role], role)
		assert.Empty(t, roles[role], role)
	}

	raw, err := json.Marshal(roles)
	require.NoError(t, err)
	assert.JSONEq(t, `{"GUEST":[],"USER":[]}`, string(raw))
	assert.NotNil(t, s.Catalog(), "catalog before fetch")
}

func TestStore_MutationFollowUpsRunInOrder(t *testing.T) {
	ctx := context.Background()
	after := map[string][]string{"USER": {"order:read", "order:refund"}}

	tests := []struct {
		name   string
		expect func(api *MockAPI) *mock.Call
		run    func(s *Store) (bool, error)
	}{
		{
			name: "update",
			expect: func(api *MockAPI) *mock.Call {
				return api.On("ReplaceRolePermissions", ctx, "USER", []string{"order:read", "order:refund"}).Return(nil)
			},
			run: func(s *Store) (bool, error) {
				return s.UpdateRole(ctx, "USER", []string{"order:read", "order:refund"})
			},
		},
		{
			name: "add",
			expect: func(api *MockAPI) *mock.Call {
				return api.On("AddPermission", ctx, "USER", "order:refund").Return(nil)
			},
			run: func(s *Store) (bool, error) { return s.AddPermission(ctx, "USER", "order:refund") },
		},
		{
			name: "remove",
			expect: func(api *MockAPI) *mock.Call {
				return api.On("RemovePermission", ctx, "USER", "order:cancel").Return(nil)
			},
			run: func(s *Store) (bool, error) { return s.RemovePermission(ctx, "USER", "order:cancel") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockAPI)
			mock.InOrder(
				tt.expect(api),
				api.On("RolePermissions", ctx).Return(after, nil),
				api.On("RefreshPermissionCache", ctx).Return(nil),
			)

			s := New(api, logger.NewNop())
			applied, err := tt.run(s)

			require.NoError(t, err)
			assert.True(t, applied)
			assert.Equal(t, after, s.Roles())
			api.AssertExpectations(t)
		})
	}
}

func TestStore_CacheRefreshFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	api := new(MockAPI)
	api.On("AddPermission", ctx, "USER", "order:refund").Return(nil)
	api.On("RolePermissions", ctx).Return(map[string][]string{"USER": {"order:refund"}}, nil)
	api.On("RefreshPermissionCache", ctx).Return(errors.New("connection reset"))

	s := New(api, logger.NewNop())
	applied, err := s.AddPermission(ctx, "USER", "order:refund")

	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, s.LastError())
}

func TestStore_ReloadFailureStillRefreshesCache(t *testing.T) {
	ctx := context.Background()
	api := new(MockAPI)
	api.On("RemovePermission", ctx, "USER", "order:read").Return(nil)
	api.On("RolePermissions", ctx).Return(nil, errors.New("timeout"))
	api.On("RefreshPermissionCache", ctx).Return(nil)

	s := New(api, logger.NewNop())
	applied, err := s.RemovePermission(ctx, "USER", "order:read")

	require.NoError(t, err)
	assert.True(t, applied)
	api.AssertCalled(t, "RefreshPermissionCache", ctx)
}

func TestStore_PrimaryFailureSkipsFollowUps(t *testing.T) {
	ctx := context.Background()
	boom := &apiclient.APIError{Status: http.StatusBadRequest, Type: "validation_error", Message: "ADMIN must keep permission:manage"}

	api := new(MockAPI)
	api.On("RemovePermission", ctx, "ADMIN", "permission:manage").Return(boom)

	s := New(api, logger.NewNop())
	applied, err := s.RemovePermission(ctx, "ADMIN", "permission:manage")

	require.ErrorIs(t, err, boom)
	assert.False(t, applied)
	assert.Equal(t, boom, s.LastError())
	api.AssertNotCalled(t, "RolePermissions", mock.Anything)
	api.AssertNotCalled(t, "RefreshPermissionCache", mock.Anything)
}

func TestStore_ForbiddenIsSuppressed(t *testing.T) {
	ctx := context.Background()
	api := new(MockAPI)
	api.On("ReplaceRolePermissions", ctx, "USER", []string{}).Return(forbidden)

	s := New(api, logger.NewNop())
	applied, err := s.UpdateRole(ctx, "USER", []string{})

	assert.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, s.LastError())
	api.AssertNotCalled(t, "RolePermissions", mock.Anything)
	api.AssertNotCalled(t, "RefreshPermissionCache", mock.Anything)
}
