package permission

import (
	"sort"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

// RolePermissionSet maps every role to the permissions it holds. Overlap
// between roles is allowed.
type RolePermissionSet map[authorization.Role][]Permission

// DefaultRolePermissions is the mapping installed into an empty database.
func DefaultRolePermissions() RolePermissionSet {
	return RolePermissionSet{
		authorization.RoleAdmin: Catalog(),
		authorization.RoleModerator: {
			ProductCreate, ProductRead, ProductUpdate, ProductDelete,
			CategoryCreate, CategoryRead, CategoryUpdate, CategoryDelete,
			OrderRead, OrderUpdate, OrderCancel,
			LotCreate, LotRead, LotUpdate, LotDelete,
			UserRead, AnalyticsRead,
		},
		authorization.RoleUser: {
			ProductRead, CategoryRead, OrderRead, LotRead, AnalyticsRead,
		},
	}.Normalize()
}

var catalogIndex = func() map[Permission]int {
	m := make(map[Permission]int)
	for i, p := range Catalog() {
		m[p] = i
	}
	return m
}()

// SortPermissions deduplicates perms and orders them by catalog position;
// entries outside the catalog sort last, alphabetically.
func SortPermissions(perms []Permission) []Permission {
	seen := make(map[Permission]struct{}, len(perms))
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ii, iok := catalogIndex[out[i]]
		jj, jok := catalogIndex[out[j]]
		switch {
		case iok && jok:
			return ii < jj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Normalize returns a copy holding exactly one, possibly empty, sorted set
// for each known role.
func (s RolePermissionSet) Normalize() RolePermissionSet {
	out := make(RolePermissionSet, len(authorization.AllRoles()))
	for _, role := range authorization.AllRoles() {
		out[role] = SortPermissions(s[role])
	}
	return out
}

// Has reports whether role holds p.
func (s RolePermissionSet) Has(role authorization.Role, p Permission) bool {
	for _, held := range s[role] {
		if held == p {
			return true
		}
	}
	return false
}

// Strings converts the set to its wire form.
func (s RolePermissionSet) Strings() map[string][]string {
	out := make(map[string][]string, len(s))
	for role, perms := range s {
		list := make([]string, len(perms))
		for i, p := range perms {
			list[i] = string(p)
		}
		out[string(role)] = list
	}
	return out
}

// FromStrings parses the wire form, skipping unknown roles.
func FromStrings(m map[string][]string) RolePermissionSet {
	out := make(RolePermissionSet, len(m))
	for name, list := range m {
		role, err := authorization.ParseRole(name)
		if err != nil {
			continue
		}
		perms := make([]Permission, len(list))
		for i, p := range list {
			perms[i] = Permission(p)
		}
		out[role] = perms
	}
	return out.Normalize()
}
