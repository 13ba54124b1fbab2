package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/application/auth"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
	appErrors "github.com/inventra-labs/gatekeeper/internal/shared/errors"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

type SessionValidator interface {
	Validate(ctx context.Context, accessToken string) (*auth.Identity, error)
}

type AuthMiddleware struct {
	validator  SessionValidator
	cookieName string
	logger     logger.Interface
}

func NewAuthMiddleware(validator SessionValidator, cookieName string, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		validator:  validator,
		cookieName: cookieName,
		logger:     logger,
	}
}

// RequireAuth reads the access token from the cookie, falling back to a
// Bearer header for non-browser clients.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.GetTokenFromCookie(c, m.cookieName)
		if token == "" {
			token = bearerToken(c.GetHeader(constants.HeaderAuthorization))
		}
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		identity, err := m.validator.Validate(c.Request.Context(), token)
		if err != nil {
			if appErrors.ShouldLogAuthError(err) {
				m.logger.Warnw("failed to validate access token", "error", err, "path", c.Request.URL.Path)
			}
			utils.ErrorResponseWithError(c, err)
			c.Abort()
			return
		}

		SetIdentity(c, identity)
		c.Next()
	}
}

func SetIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(constants.ContextKeyUserID, identity.UserID)
	c.Set(constants.ContextKeySessionID, identity.SessionID)
	c.Set(constants.ContextKeyUserRole, string(identity.Role))
	c.Set(constants.ContextKeyUserEmail, identity.Email)
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(c *gin.Context) (*auth.Identity, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	if userID == "" {
		return nil, false
	}
	return &auth.Identity{
		UserID:    userID,
		SessionID: c.GetString(constants.ContextKeySessionID),
		Role:      authorization.Role(c.GetString(constants.ContextKeyUserRole)),
		Email:     c.GetString(constants.ContextKeyUserEmail),
	}, true
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
