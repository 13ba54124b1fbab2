package http

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/inventra-labs/gatekeeper/docs"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/routes"
)

// SetupRoutes configures all HTTP routes
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.CustomLogger(c.log))
	c.engine.Use(middleware.Recovery(c.log))
	c.engine.Use(middleware.CORS(c.cfg.Server.AllowedOrigins))
	c.engine.Use(middleware.CSRF(c.cfg.Auth.Cookie))

	if c.cfg.Server.Mode == gin.DebugMode {
		c.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	c.engine.GET("/health", c.healthHandler.HealthCheck)
	c.engine.GET("/version", c.healthHandler.Version)

	routes.SetupAuthRoutes(c.engine, &routes.AuthRouteConfig{
		AuthHandler:    c.authHandler,
		AuthMiddleware: c.authMiddleware,
		RateLimiter:    c.rateLimiter,
	})

	routes.SetupPermissionRoutes(c.engine, &routes.PermissionRouteConfig{
		PermissionHandler:    c.permissionHandler,
		AuthMiddleware:       c.authMiddleware,
		PermissionMiddleware: c.permissionMiddleware,
	})
}
