package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/application/auth"
	infraAuth "github.com/inventra-labs/gatekeeper/internal/infrastructure/auth"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/middleware"
	"github.com/inventra-labs/gatekeeper/internal/shared/config"
	appErrors "github.com/inventra-labs/gatekeeper/internal/shared/errors"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

type AuthHandler struct {
	service      AuthService
	cookieConfig config.CookieConfig
	logger       logger.Interface
}

func NewAuthHandler(service AuthService, cookieConfig config.CookieConfig, logger logger.Interface) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieConfig: cookieConfig,
		logger:       logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SessionResponse struct {
	User UserResponse `json:"user"`
}

func toSessionResponse(id *auth.Identity) SessionResponse {
	return SessionResponse{User: UserResponse{
		ID:    id.UserID,
		Email: id.Email,
		Role:  string(id.Role),
	}}
}

// Login godoc
// @Summary Login with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} utils.APIResponse{data=SessionResponse}
// @Failure 400 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Failure 429 {object} utils.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if appErrors.IsSecurityEvent(err) {
			h.logger.Warnw("login rejected", "email", utils.MaskEmail(req.Email), "client_ip", c.ClientIP())
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.setTokens(c, result.Tokens)
	utils.SuccessResponse(c, http.StatusOK, "login successful", toSessionResponse(&result.Identity))
}

// Validate godoc
// @Summary Resolve the access-token cookie to the current user
// @Tags auth
// @Produce json
// @Success 200 {object} utils.APIResponse{data=SessionResponse}
// @Failure 401 {object} utils.APIResponse
// @Router /auth/validate [get]
func (h *AuthHandler) Validate(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", toSessionResponse(identity))
}

// RefreshToken godoc
// @Summary Rotate the refresh-token cookie and issue a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken := utils.GetTokenFromCookie(c, utils.RefreshCookieName(h.cookieConfig))

	pair, err := h.service.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if appErrors.ShouldLogAuthError(err) {
			h.logger.Warnw("refresh rejected", "error", err, "client_ip", c.ClientIP())
		}
		utils.ClearAuthCookies(c, h.cookieConfig)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.setTokens(c, pair)
	utils.SuccessResponse(c, http.StatusOK, "token refreshed", nil)
}

// Logout godoc
// @Summary End the current session
// @Tags auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	accessToken := utils.GetTokenFromCookie(c, utils.AccessCookieName(h.cookieConfig))
	refreshToken := utils.GetTokenFromCookie(c, utils.RefreshCookieName(h.cookieConfig))

	if err := h.service.Logout(c.Request.Context(), accessToken, refreshToken); err != nil {
		h.logger.Errorw("failed to logout", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ClearAuthCookies(c, h.cookieConfig)
	utils.SuccessResponse(c, http.StatusOK, "logged out", nil)
}

type LogoutAllResponse struct {
	Revoked int `json:"revoked"`
}

// LogoutAll godoc
// @Summary End every session of the current user
// @Tags auth
// @Produce json
// @Success 200 {object} utils.APIResponse{data=LogoutAllResponse}
// @Failure 401 {object} utils.APIResponse
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	n, err := h.service.LogoutAll(c.Request.Context(), identity.UserID)
	if err != nil {
		h.logger.Errorw("failed to logout all sessions", "error", err, "user_id", identity.UserID)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ClearAuthCookies(c, h.cookieConfig)
	utils.SuccessResponse(c, http.StatusOK, "all sessions logged out", LogoutAllResponse{Revoked: n})
}

func (h *AuthHandler) setTokens(c *gin.Context, pair *infraAuth.TokenPair) {
	refreshMaxAge := int(time.Until(pair.RefreshExpiresAt).Seconds())
	utils.SetAuthCookies(c, h.cookieConfig, pair.AccessToken, pair.RefreshToken, int(pair.ExpiresIn), refreshMaxAge)
}
