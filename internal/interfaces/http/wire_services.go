package http

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	authApp "github.com/inventra-labs/gatekeeper/internal/application/auth"
	permissionApp "github.com/inventra-labs/gatekeeper/internal/application/permission"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/auth"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/cache"
	permissionInfra "github.com/inventra-labs/gatekeeper/internal/infrastructure/permission"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/ratelimit"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/repository"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/handlers"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

func (c *Container) initInfrastructure() {
	if c.redis == nil {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     c.cfg.Redis.GetAddr(),
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
	}

	c.userRepo = repository.NewUserRepository(c.db)
	c.rolePermissionRepo = repository.NewRolePermissionRepository(c.db)
}

func (c *Container) initPermissions() error {
	enforcer, err := permissionInfra.NewEnforcer(c.db, c.cfg.Auth.CasbinModel, c.log.Named("casbin"))
	if err != nil {
		return err
	}
	c.enforcer = enforcer

	c.permissionService = permissionApp.NewService(c.rolePermissionRepo, c.enforcer, c.log)
	c.permissionMiddleware = middleware.NewPermissionMiddleware(c.permissionService, c.log)
	return nil
}

func (c *Container) initAuth() {
	hasher := auth.NewBcryptPasswordHasher(c.cfg.Auth.Password.BcryptCost)
	jwtSvc := auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.AccessExpMinutes, c.cfg.Auth.JWT.RefreshExpDays)
	sessions := cache.NewSessionStore(c.redis)

	c.authService = authApp.NewService(c.userRepo, hasher, jwtSvc, sessions, c.log)
	c.authMiddleware = middleware.NewAuthMiddleware(
		c.authService,
		utils.AccessCookieName(c.cfg.Auth.Cookie),
		c.log,
	)

	limit := c.cfg.Auth.LoginRateLimit
	loginLimiter := ratelimit.NewRedisRateLimiter(c.redis, constants.RedisKeyLoginLimit, ratelimit.Config{
		Limit:  limit.Limit,
		Window: time.Duration(limit.WindowSeconds) * time.Second,
	})
	c.rateLimiter = middleware.NewRateLimiter(loginLimiter, c.log)
}

func (c *Container) initHandlers() {
	c.authHandler = handlers.NewAuthHandler(c.authService, c.cfg.Auth.Cookie, c.log)
	c.permissionHandler = handlers.NewPermissionHandler(c.permissionService, c.log)

	probes := map[string]handlers.Pinger{
		"redis": handlers.PingerFunc(func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}),
		"database": handlers.PingerFunc(func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	c.healthHandler = handlers.NewHealthHandler(probes)
}
