package permission

// PermissionEnforcer answers authorization checks from a cached policy.
// Changes made through RolePermissionRepository become visible only after
// Rebuild.
type PermissionEnforcer interface {
	Enforce(role string, resource string, action string) (bool, error)
	Rebuild(set RolePermissionSet) error
}
