package permission

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// DefaultModel is a plain RBAC-less ACL: the subject is the role name.
const DefaultModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

var _ permission.PermissionEnforcer = (*Enforcer)(nil)

type Enforcer struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   logger.Interface
}

// NewEnforcer builds a casbin enforcer persisted in the casbin_rule table.
// An empty modelText selects DefaultModel.
func NewEnforcer(db *gorm.DB, modelText string, log logger.Interface) (*Enforcer, error) {
	if modelText == "" {
		modelText = DefaultModel
	}

	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	// Each AddPolicies/RemovePolicies is written through to casbin_rule.
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &Enforcer{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

func (e *Enforcer) Enforce(role string, resource string, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(role, resource, action)
	if err != nil {
		e.logger.Errorw("permission check failed", "error", err, "role", role, "resource", resource, "action", action)
		return false, fmt.Errorf("permission check failed: %w", err)
	}

	return allowed, nil
}

// Rebuild replaces the cached policy with set. Only the rules that
// differ are written, so the database sees one delete batch and one
// insert batch instead of a truncate and full reload.
func (e *Enforcer) Rebuild(set permission.RolePermissionSet) error {
	desired := make(map[policyRule]struct{})
	for role, perms := range set {
		for _, p := range perms {
			resource, action, err := p.Split()
			if err != nil {
				e.logger.Warnw("skipping malformed permission", "role", role, "permission", p, "error", err)
				continue
			}
			desired[policyRule{string(role), resource.String(), action.String()}] = struct{}{}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current, err := e.enforcer.GetPolicy()
	if err != nil {
		return fmt.Errorf("failed to read policy: %w", err)
	}

	var stale [][]string
	existing := make(map[policyRule]struct{}, len(current))
	for _, rule := range current {
		key, ok := toPolicyRule(rule)
		if !ok {
			stale = append(stale, rule)
			continue
		}
		if _, dup := existing[key]; dup {
			continue
		}
		existing[key] = struct{}{}
		if _, keep := desired[key]; !keep {
			stale = append(stale, key.slice())
		}
	}

	var missing [][]string
	for key := range desired {
		if _, ok := existing[key]; !ok {
			missing = append(missing, key.slice())
		}
	}

	if len(stale) > 0 {
		if _, err := e.enforcer.RemovePolicies(stale); err != nil {
			e.logger.Errorw("failed to remove stale policies", "error", err, "count", len(stale))
			return fmt.Errorf("failed to remove policies: %w", err)
		}
	}
	if len(missing) > 0 {
		if _, err := e.enforcer.AddPolicies(missing); err != nil {
			e.logger.Errorw("failed to add policies", "error", err, "count", len(missing))
			return fmt.Errorf("failed to add policies: %w", err)
		}
	}

	e.logger.Infow("permission policy rebuilt",
		"rules", len(desired), "added", len(missing), "removed", len(stale))
	return nil
}

type policyRule struct {
	role, resource, action string
}

func toPolicyRule(rule []string) (policyRule, bool) {
	if len(rule) != 3 {
		return policyRule{}, false
	}
	return policyRule{rule[0], rule[1], rule[2]}, true
}

func (r policyRule) slice() []string {
	return []string{r.role, r.resource, r.action}
}

// PolicyCount reports the number of cached rules.
func (e *Enforcer) PolicyCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies, err := e.enforcer.GetPolicy()
	if err != nil {
		return 0
	}
	return len(policies)
}
