package perms

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inventra-labs/gatekeeper/internal/infrastructure/config"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/persistence/models"
	httpRouter "github.com/inventra-labs/gatekeeper/internal/interfaces/http"
	sharedConfig "github.com/inventra-labs/gatekeeper/internal/shared/config"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newBackend(t *testing.T) string {
	t.Helper()
	utils.RegisterValidators()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		Server: sharedConfig.ServerConfig{Mode: gin.TestMode},
		Auth: sharedConfig.AuthConfig{
			Password:       sharedConfig.PasswordConfig{BcryptCost: 4},
			JWT:            sharedConfig.JWTConfig{Secret: "test-secret", AccessExpMinutes: 15, RefreshExpDays: 7},
			Cookie:         sharedConfig.CookieConfig{Path: "/", SameSite: "Lax"},
			BootstrapAdmin: sharedConfig.BootstrapAdminConfig{Email: "admin@example.com", Password: "admin-password"},
			LoginRateLimit: sharedConfig.LoginRateLimitConfig{Limit: 100, WindowSeconds: 60},
		},
	}

	c, err := httpRouter.NewContainer(db, rdb, cfg, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Initialize(context.Background()))
	c.SetupRoutes()

	srv := httptest.NewServer(c.Engine())
	t.Cleanup(srv.Close)
	t.Cleanup(c.Shutdown)
	return srv.URL
}

func runPerms(t *testing.T, api string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--api", api, "--email", "admin@example.com", "--password", "admin-password"))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestPerms_ListAndCatalog(t *testing.T) {
	api := newBackend(t)

	out, _, err := runPerms(t, api, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ROLE")
	assert.Contains(t, out, "ADMIN")
	assert.Contains(t, out, "permission:manage")

	out, _, err = runPerms(t, api, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "permission:read")
	assert.Contains(t, out, "order:read")
}

func TestPerms_AddThenRemove(t *testing.T) {
	api := newBackend(t)

	out, _, err := runPerms(t, api, "add", "user", "order:refund")
	require.NoError(t, err)
	assert.Regexp(t, `USER\s+.*order:refund`, out)

	out, _, err = runPerms(t, api, "remove", "USER", "order:refund")
	require.NoError(t, err)
	assert.NotRegexp(t, `USER\s+[^\n]*order:refund`, out)
}

func TestPerms_SetEmptiesRole(t *testing.T) {
	api := newBackend(t)

	out, _, err := runPerms(t, api, "set", "MODERATOR")
	require.NoError(t, err)
	assert.Regexp(t, `MODERATOR\s+-`, out)

	out, _, err = runPerms(t, api, "list", "-o", "json")
	require.NoError(t, err)
	var roles map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &roles))
	assert.JSONEq(t, `[]`, string(roles["MODERATOR"]))
}

func TestPerms_AdminLockoutIsRejected(t *testing.T) {
	api := newBackend(t)

	_, _, err := runPerms(t, api, "remove", "ADMIN", "permission:manage")
	require.Error(t, err)
}

func TestPerms_RequiresCredentials(t *testing.T) {
	t.Setenv(passwordEnv, "")

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "--api", "http://127.0.0.1:1"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--email")
}

func TestPerms_WrongPassword(t *testing.T) {
	api := newBackend(t)

	cmd := NewCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"list", "--api", api, "--email", "admin@example.com", "--password", "nope"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
}

func TestPerms_StructuredOutput(t *testing.T) {
	api := newBackend(t)

	out, _, err := runPerms(t, api, "list", "-o", "yaml")
	require.NoError(t, err)
	var roles map[string][]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &roles))
	assert.Contains(t, roles["ADMIN"], "permission:manage")

	out, _, err = runPerms(t, api, "catalog", "-o", "json")
	require.NoError(t, err)
	var catalog []string
	require.NoError(t, json.Unmarshal([]byte(out), &catalog))
	assert.Contains(t, catalog, "order:refund")

	_, _, err = runPerms(t, api, "list", "-o", "xml")
	assert.Error(t, err)
}
