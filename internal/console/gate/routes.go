package gate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/config"
)

// Rules are the static route tables. A path in RoleRestricted with an empty
// role list admits any authenticated role.
type Rules struct {
	Public         []string
	Authenticated  []string
	RoleRestricted map[string][]authorization.Role
}

// DefaultRules returns the dashboard's built-in route tables.
func DefaultRules() Rules {
	admin := []authorization.Role{authorization.RoleAdmin}
	staff := []authorization.Role{authorization.RoleAdmin, authorization.RoleModerator}

	return Rules{
		Public: []string{
			"/auth/login",
			"/auth/register",
			"/auth/forgot-password",
		},
		Authenticated: []string{
			"/dashboard",
			"/profile",
		},
		RoleRestricted: map[string][]authorization.Role{
			"/dashboard/users":       admin,
			"/dashboard/permissions": admin,
			"/dashboard/roles":       admin,
			"/dashboard/analytics":   {},
			"/dashboard/orders":      staff,
			"/dashboard/products":    staff,
			"/dashboard/categories":  staff,
			"/dashboard/lots":        staff,
		},
	}
}

// RulesFromConfig builds Rules from configuration. An empty configuration
// yields DefaultRules.
func RulesFromConfig(cfg config.RoutesConfig) (Rules, error) {
	if len(cfg.Public) == 0 && len(cfg.Authenticated) == 0 && len(cfg.RoleRestricted) == 0 {
		return DefaultRules(), nil
	}

	rules := Rules{
		Public:         append([]string(nil), cfg.Public...),
		Authenticated:  append([]string(nil), cfg.Authenticated...),
		RoleRestricted: make(map[string][]authorization.Role, len(cfg.RoleRestricted)),
	}
	for _, route := range cfg.RoleRestricted {
		if _, dup := rules.RoleRestricted[route.Path]; dup {
			return Rules{}, fmt.Errorf("route %s is restricted twice", route.Path)
		}
		roles := make([]authorization.Role, 0, len(route.Roles))
		for _, name := range route.Roles {
			role, err := authorization.ParseRole(name)
			if err != nil {
				return Rules{}, fmt.Errorf("route %s: %w", route.Path, err)
			}
			roles = append(roles, role)
		}
		rules.RoleRestricted[route.Path] = roles
	}
	return rules, nil
}

type restriction struct {
	prefix string
	roles  []authorization.Role
}

// Table is the compiled, immutable form of Rules.
type Table struct {
	public        []string
	authenticated []string
	// longest prefix first
	restricted []restriction
}

func NewTable(rules Rules) (*Table, error) {
	t := &Table{}

	var err error
	if t.public, err = normalizeAll(rules.Public); err != nil {
		return nil, err
	}
	if t.authenticated, err = normalizeAll(rules.Authenticated); err != nil {
		return nil, err
	}

	for path, roles := range rules.RoleRestricted {
		p, err := normalize(path)
		if err != nil {
			return nil, err
		}
		t.restricted = append(t.restricted, restriction{
			prefix: p,
			roles:  append([]authorization.Role{}, roles...),
		})
	}
	sort.Slice(t.restricted, func(i, j int) bool {
		a, b := t.restricted[i].prefix, t.restricted[j].prefix
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	return t, nil
}

// MustNewTable is NewTable for static rules known to be valid.
func MustNewTable(rules Rules) *Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(err)
	}
	return t
}

func normalizeAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		n, err := normalize(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func normalize(p string) (string, error) {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("route %q must start with /", p)
	}
	if p != "/" {
		p = strings.TrimRight(p, "/")
	}
	return p, nil
}

// matches reports whether path equals prefix or lies below it on a segment
// boundary, so /dashboard/users matches /dashboard/users/42 but not
// /dashboard/users-archive.
func matches(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if matches(path, p) {
			return true
		}
	}
	return false
}

func (t *Table) restriction(path string) (restriction, bool) {
	for _, r := range t.restricted {
		if matches(path, r.prefix) {
			return r, true
		}
	}
	return restriction{}, false
}
