package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/inventra-labs/gatekeeper/internal/domain/permission/value_objects"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

func TestCatalogHasNoDuplicates(t *testing.T) {
	seen := map[Permission]bool{}
	for _, p := range Catalog() {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
		_, _, err := p.Split()
		assert.NoError(t, err, "catalog entry %s must be well formed", p)
	}
	assert.Len(t, seen, len(known))
}

func TestPermissionSplit(t *testing.T) {
	r, a, err := OrderCancel.Split()
	require.NoError(t, err)
	assert.Equal(t, vo.ResourceOrder, r)
	assert.Equal(t, vo.ActionCancel, a)

	for _, bad := range []Permission{"order", ":cancel", "order:", "order:cancel:now", "order:fly"} {
		_, _, err := bad.Split()
		assert.Error(t, err, string(bad))
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]Permission{ProductRead, OrderCancel}))
	err := Validate([]Permission{ProductRead, "order:teleport"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order:teleport")
}

func TestDefaultRolePermissions(t *testing.T) {
	set := DefaultRolePermissions()

	for _, role := range authorization.AllRoles() {
		_, ok := set[role]
		assert.True(t, ok, "role %s must have a set", role)
	}
	assert.Equal(t, Catalog(), set[authorization.RoleAdmin])
	assert.True(t, set.Has(authorization.RoleModerator, OrderCancel))
	assert.False(t, set.Has(authorization.RoleUser, OrderCancel))
	assert.True(t, set.Has(authorization.RoleUser, AnalyticsRead))
}

func TestNormalizeFillsRolesAndDedups(t *testing.T) {
	set := RolePermissionSet{
		authorization.RoleUser: {OrderRead, ProductRead, OrderRead},
	}.Normalize()

	assert.Equal(t, []Permission{ProductRead, OrderRead}, set[authorization.RoleUser])
	assert.NotNil(t, set[authorization.RoleAdmin])
	assert.Empty(t, set[authorization.RoleAdmin])
}

func TestWireRoundTripDropsUnknownRoles(t *testing.T) {
	in := map[string][]string{
		"ADMIN": {"permission:manage"},
		"GHOST": {"order:read"},
	}
	set := FromStrings(in)

	assert.Equal(t, []Permission{PermissionManage}, set[authorization.RoleAdmin])
	assert.Len(t, set, 3)
	assert.Equal(t, []string{"permission:manage"}, set.Strings()["ADMIN"])
}
