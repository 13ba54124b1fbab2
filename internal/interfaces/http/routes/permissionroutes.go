package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/domain/permission"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/handlers"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
)

// PermissionRouteConfig holds dependencies for the permission admin routes.
type PermissionRouteConfig struct {
	PermissionHandler    *handlers.PermissionHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
}

// SetupPermissionRoutes configures permission admin routes.
func SetupPermissionRoutes(engine *gin.Engine, cfg *PermissionRouteConfig) {
	read := cfg.PermissionMiddleware.RequirePermission(permission.PermissionRead)
	manage := cfg.PermissionMiddleware.RequirePermission(permission.PermissionManage)

	perms := engine.Group("/permissions")
	perms.Use(cfg.AuthMiddleware.RequireAuth())
	{
		perms.GET("/roles", read, cfg.PermissionHandler.GetRolePermissions)
		perms.GET("/available", read, cfg.PermissionHandler.GetAvailablePermissions)

		perms.POST("/roles/:role", manage, cfg.PermissionHandler.ReplaceRolePermissions)
		perms.POST("/add", manage, cfg.PermissionHandler.AddPermission)
		perms.DELETE("/remove", manage, cfg.PermissionHandler.RemovePermission)
		perms.POST("/refresh-cache", manage, cfg.PermissionHandler.RefreshCache)
	}
}
