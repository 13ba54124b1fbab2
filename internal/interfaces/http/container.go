package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authApp "github.com/inventra-labs/gatekeeper/internal/application/auth"
	permissionApp "github.com/inventra-labs/gatekeeper/internal/application/permission"
	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/domain/user"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/config"
	permissionInfra "github.com/inventra-labs/gatekeeper/internal/infrastructure/permission"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/handlers"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// Container holds infrastructure components, services, handlers and
// middlewares of the backend API and wires them together.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  redis.UniversalClient

	// Repositories
	userRepo           user.Repository
	rolePermissionRepo permission.RolePermissionRepository

	// Authorization cache
	enforcer *permissionInfra.Enforcer

	// Services
	authService       *authApp.Service
	permissionService *permissionApp.Service

	// Middlewares
	authMiddleware       *middleware.AuthMiddleware
	permissionMiddleware *middleware.PermissionMiddleware
	rateLimiter          *middleware.RateLimiter

	// Handlers
	authHandler       *handlers.AuthHandler
	permissionHandler *handlers.PermissionHandler
	healthHandler     *handlers.HealthHandler
}

// NewContainer wires every backend component. rdb may be nil, in which case
// a client is created from cfg.Redis.
func NewContainer(db *gorm.DB, rdb redis.UniversalClient, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
		redis:  rdb,
	}

	// Section 1: Infrastructure - Redis, Repositories
	c.initInfrastructure()

	// Section 2: Permissions - Enforcer, Service, Middleware
	if err := c.initPermissions(); err != nil {
		return nil, err
	}

	// Section 3: Auth - Tokens, Sessions, Service, Middlewares
	c.initAuth()

	// Section 4: Handlers
	c.initHandlers()

	return c, nil
}

// Initialize seeds default role permissions, loads the authorization cache
// and creates the bootstrap admin when configured.
func (c *Container) Initialize(ctx context.Context) error {
	if err := permissionInfra.InitPermissions(ctx, c.rolePermissionRepo, c.enforcer, c.log); err != nil {
		return fmt.Errorf("failed to initialize permissions: %w", err)
	}

	admin := c.cfg.Auth.BootstrapAdmin
	if admin.Email != "" && admin.Password != "" {
		if err := c.authService.EnsureBootstrapAdmin(ctx, admin.Email, admin.Password); err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
	}
	return nil
}

// Engine returns the gin engine.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// Shutdown releases resources owned by the container.
func (c *Container) Shutdown() {
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis client", "error", err)
		}
	}
}
