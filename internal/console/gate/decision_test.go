package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/config"
)

func TestTable_Decide(t *testing.T) {
	table := MustNewTable(DefaultRules())

	anonymous := Session{}
	as := func(role authorization.Role) Session {
		return Session{Authenticated: true, Role: role}
	}

	tests := []struct {
		name    string
		path    string
		query   string
		session Session
		want    Decision
	}{
		{"root while signed in", "/", "", as(authorization.RoleAdmin), redirect("/auth/login")},
		{"root anonymous", "/", "", anonymous, redirect("/auth/login")},
		{"login while signed in", "/auth/login", "", as(authorization.RoleUser), redirect("/dashboard")},
		{"login anonymous", "/auth/login", "", anonymous, allow()},
		{"register anonymous", "/auth/register", "", anonymous, allow()},
		{"restricted anonymous", "/dashboard/users", "", anonymous, redirect("/auth/login?returnUrl=%2Fdashboard%2Fusers")},
		{"restricted wrong role", "/dashboard/users", "", as(authorization.RoleUser), redirect("/unauthorized")},
		{"restricted right role", "/dashboard/users", "", as(authorization.RoleAdmin), allow()},
		{"empty role list admits any role", "/dashboard/analytics", "", as(authorization.RoleUser), allow()},
		{"empty role list still needs a session", "/dashboard/analytics", "", anonymous, redirect("/auth/login?returnUrl=%2Fdashboard%2Fanalytics")},
		{"staff route for moderator", "/dashboard/orders", "", as(authorization.RoleModerator), allow()},
		{"staff route for user", "/dashboard/orders", "", as(authorization.RoleUser), redirect("/unauthorized")},
		{"nested restricted path", "/dashboard/users/42/edit", "", as(authorization.RoleModerator), redirect("/unauthorized")},
		{"segment boundary", "/dashboard/users-archive", "", as(authorization.RoleUser), allow()},
		{"return url keeps query", "/dashboard/orders", "status=open&page=2", anonymous, redirect("/auth/login?returnUrl=%2Fdashboard%2Forders%3Fstatus%3Dopen%26page%3D2")},
		{"authenticated-only home", "/dashboard", "", as(authorization.RoleUser), allow()},
		{"authenticated-only anonymous", "/profile", "", anonymous, redirect("/auth/login?returnUrl=%2Fprofile")},
		{"unlisted path", "/unauthorized", "", anonymous, allow()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Decide(tt.path, tt.query, tt.session))
		})
	}
}

func TestTable_LongestRestrictionWins(t *testing.T) {
	table := MustNewTable(Rules{
		RoleRestricted: map[string][]authorization.Role{
			"/reports":        {authorization.RoleAdmin},
			"/reports/public": {},
		},
	})

	user := Session{Authenticated: true, Role: authorization.RoleUser}
	assert.Equal(t, allow(), table.Decide("/reports/public/q1", "", user))
	assert.Equal(t, redirect(UnauthorizedPath), table.Decide("/reports/private", "", user))
}

func TestNewTable_RejectsRelativePaths(t *testing.T) {
	_, err := NewTable(Rules{Public: []string{"auth/login"}})
	assert.Error(t, err)
}

func TestRulesFromConfig(t *testing.T) {
	t.Run("empty config uses defaults", func(t *testing.T) {
		rules, err := RulesFromConfig(config.RoutesConfig{})
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("parses roles", func(t *testing.T) {
		rules, err := RulesFromConfig(config.RoutesConfig{
			Public: []string{"/auth/login"},
			RoleRestricted: []config.RestrictedRoute{
				{Path: "/dashboard/users", Roles: []string{"admin"}},
				{Path: "/dashboard/analytics"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []authorization.Role{authorization.RoleAdmin}, rules.RoleRestricted["/dashboard/users"])
		require.Contains(t, rules.RoleRestricted, "/dashboard/analytics")
		assert.Empty(t, rules.RoleRestricted["/dashboard/analytics"])
	})

	t.Run("paths keep their case", func(t *testing.T) {
		rules, err := RulesFromConfig(config.RoutesConfig{
			RoleRestricted: []config.RestrictedRoute{{Path: "/dashboard/Reports", Roles: []string{"ADMIN"}}},
		})
		require.NoError(t, err)
		table, err := NewTable(rules)
		require.NoError(t, err)

		user := Session{Authenticated: true, Role: authorization.RoleUser}
		assert.Equal(t, redirect(UnauthorizedPath), table.Decide("/dashboard/Reports", "", user))
	})

	t.Run("duplicate path", func(t *testing.T) {
		_, err := RulesFromConfig(config.RoutesConfig{
			RoleRestricted: []config.RestrictedRoute{
				{Path: "/dashboard/users", Roles: []string{"ADMIN"}},
				{Path: "/dashboard/users", Roles: []string{"USER"}},
			},
		})
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := RulesFromConfig(config.RoutesConfig{
			RoleRestricted: []config.RestrictedRoute{{Path: "/dashboard/users", Roles: []string{"ROOT"}}},
		})
		assert.Error(t, err)
	})
}
