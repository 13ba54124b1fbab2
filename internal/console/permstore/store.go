// Package permstore holds the admin's view of role permissions and applies
// edits through the API, keeping the view and the server cache in step.
package permstore

import (
	"context"
	"sort"
	"sync"

	"github.com/inventra-labs/gatekeeper/internal/console/apiclient"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// API is the part of apiclient.Client the store needs.
type API interface {
	RolePermissions(ctx context.Context) (map[string][]string, error)
	AvailablePermissions(ctx context.Context) ([]string, error)
	ReplaceRolePermissions(ctx context.Context, role string, perms []string) error
	AddPermission(ctx context.Context, role, perm string) error
	RemovePermission(ctx context.Context, role, perm string) error
	RefreshPermissionCache(ctx context.Context) error
}

// Store caches role permissions and the catalog locally.
//
// Every successful mutation re-fetches the role mapping and then asks the
// server to refresh its authorization cache. Both follow-ups are best
// effort: their failures are logged and the mutation still counts as
// applied.
//
// A forbidden mutation is not reported as an error because the client has
// already notified the user; it returns applied=false.
type Store struct {
	api    API
	logger logger.Interface

	mu      sync.RWMutex
	roles   map[string][]string
	catalog []string
	lastErr error
}

func New(api API, log logger.Interface) *Store {
	return &Store{
		api:    api,
		logger: log,
		roles:  map[string][]string{},
	}
}

// Fetch loads the role mapping.
func (s *Store) Fetch(ctx context.Context) error {
	roles, err := s.api.RolePermissions(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.roles = roles
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// FetchCatalog loads the permission catalog.
func (s *Store) FetchCatalog(ctx context.Context) error {
	perms, err := s.api.AvailablePermissions(ctx)
	if err != nil {
		s.setErr(err)
		return err
	}

	s.mu.Lock()
	s.catalog = perms
	s.mu.Unlock()
	return nil
}

// Roles returns a copy of the role mapping.
func (s *Store) Roles() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]string, len(s.roles))
	for role, perms := range s.roles {
		out[role] = append(make([]string, 0, len(perms)), perms...)
	}
	return out
}

// RoleNames returns the known roles sorted by name.
func (s *Store) RoleNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.roles))
	for role := range s.roles {
		names = append(names, role)
	}
	sort.Strings(names)
	return names
}

// Catalog returns a copy of the permission catalog.
func (s *Store) Catalog() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]string, 0, len(s.catalog)), s.catalog...)
}

// LastError is the most recent surfaced failure, cleared by a successful
// Fetch or mutation.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// UpdateRole replaces every permission of role.
func (s *Store) UpdateRole(ctx context.Context, role string, perms []string) (bool, error) {
	return s.mutate(ctx, "update role permissions", func() error {
		return s.api.ReplaceRolePermissions(ctx, role, perms)
	}, "role", role, "count", len(perms))
}

// AddPermission grants perm to role.
func (s *Store) AddPermission(ctx context.Context, role, perm string) (bool, error) {
	return s.mutate(ctx, "add permission", func() error {
		return s.api.AddPermission(ctx, role, perm)
	}, "role", role, "permission", perm)
}

// RemovePermission revokes perm from role.
func (s *Store) RemovePermission(ctx context.Context, role, perm string) (bool, error) {
	return s.mutate(ctx, "remove permission", func() error {
		return s.api.RemovePermission(ctx, role, perm)
	}, "role", role, "permission", perm)
}

func (s *Store) mutate(ctx context.Context, op string, call func() error, kv ...any) (bool, error) {
	if err := call(); err != nil {
		if apiclient.IsForbidden(err) {
			s.logger.Debugw(op+" forbidden", kv...)
			return false, nil
		}
		s.logger.Warnw(op+" failed", append(kv, "error", err)...)
		s.setErr(err)
		return false, err
	}

	if err := s.Fetch(ctx); err != nil {
		s.logger.Warnw("failed to reload role permissions after "+op, "error", err)
	}
	if err := s.api.RefreshPermissionCache(ctx); err != nil {
		s.logger.Warnw("failed to refresh permission cache after "+op, "error", err)
	}

	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	return true, nil
}

func (s *Store) setErr(err error) {
	if apiclient.IsForbidden(err) {
		return
	}
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
