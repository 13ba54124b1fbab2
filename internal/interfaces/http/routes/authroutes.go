package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/handlers"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
)

// AuthRouteConfig holds dependencies for authentication routes.
type AuthRouteConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
}

// SetupAuthRoutes configures authentication routes.
func SetupAuthRoutes(engine *gin.Engine, cfg *AuthRouteConfig) {
	auth := engine.Group("/auth")
	{
		auth.POST("/login", cfg.RateLimiter.Limit(), cfg.AuthHandler.Login)
		auth.GET("/validate", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Validate)
		auth.POST("/refresh", cfg.AuthHandler.RefreshToken)

		// Logout must succeed without a live session.
		auth.POST("/logout", cfg.AuthHandler.Logout)
		auth.POST("/logout-all", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.LogoutAll)
	}
}
