// Package auth implements login, session validation and refresh-token
// rotation for dashboard accounts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inventra-labs/gatekeeper/internal/domain/user"
	infraAuth "github.com/inventra-labs/gatekeeper/internal/infrastructure/auth"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/cache"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	appErrors "github.com/inventra-labs/gatekeeper/internal/shared/errors"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

type TokenService interface {
	Generate(userID string, sessionID string, role authorization.Role) (*infraAuth.TokenPair, error)
	Verify(token string, expected infraAuth.TokenType) (*infraAuth.Claims, error)
	RefreshTTL() time.Duration
}

type SessionStore interface {
	Create(ctx context.Context, sess *cache.Session, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*cache.Session, error)
	Rotate(ctx context.Context, sessionID, presented, next string, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	DeleteAll(ctx context.Context, userID string) (int, error)
}

// Identity is what a valid access token resolves to.
type Identity struct {
	UserID    string
	Email     string
	Role      authorization.Role
	SessionID string
}

type LoginResult struct {
	Identity Identity
	Tokens   *infraAuth.TokenPair
}

type Service struct {
	users    user.Repository
	hasher   PasswordHasher
	tokens   TokenService
	sessions SessionStore
	logger   logger.Interface
}

func NewService(users user.Repository, hasher PasswordHasher, tokens TokenService, sessions SessionStore, log logger.Interface) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		logger:   log,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Errorw("failed to get user by email", "error", err)
		return nil, appErrors.NewInternalError("failed to login")
	}
	if account == nil {
		return nil, appErrors.NewInvalidCredentialsError()
	}
	if err := s.hasher.Verify(password, account.PasswordHash()); err != nil {
		s.logger.Warnw("failed login attempt", "user_id", account.ID())
		return nil, appErrors.NewInvalidCredentialsError()
	}

	sessionID := uuid.NewString()
	pair, err := s.tokens.Generate(account.ID(), sessionID, account.Role())
	if err != nil {
		s.logger.Errorw("failed to generate tokens", "error", err)
		return nil, appErrors.NewInternalError("failed to login")
	}

	sess := &cache.Session{
		ID:         sessionID,
		UserID:     account.ID(),
		Email:      account.Email(),
		Role:       account.Role(),
		RefreshJTI: pair.RefreshJTI,
	}
	if err := s.sessions.Create(ctx, sess, s.tokens.RefreshTTL()); err != nil {
		s.logger.Errorw("failed to create session", "error", err)
		return nil, appErrors.NewInternalError("failed to login")
	}

	s.logger.Infow("user logged in", "user_id", account.ID(), "session_id", sessionID)

	return &LoginResult{
		Identity: Identity{
			UserID:    account.ID(),
			Email:     account.Email(),
			Role:      account.Role(),
			SessionID: sessionID,
		},
		Tokens: pair,
	}, nil
}

// Validate resolves an access token to its identity. The session must still
// exist, so a logout takes effect before the token itself expires.
func (s *Service) Validate(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, appErrors.NewUnauthorizedError("authentication required")
	}

	claims, err := s.tokens.Verify(accessToken, infraAuth.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, infraAuth.ErrTokenExpired) {
			return nil, appErrors.NewTokenExpiredError("access token")
		}
		return nil, appErrors.NewTokenInvalidError("access token")
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, appErrors.NewSessionExpiredError()
		}
		s.logger.Errorw("failed to load session", "error", err, "session_id", claims.SessionID)
		return nil, appErrors.NewInternalError("failed to validate session")
	}

	return &Identity{
		UserID:    sess.UserID,
		Email:     sess.Email,
		Role:      sess.Role,
		SessionID: sess.ID,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. Each refresh token is
// accepted once; presenting a rotated one revokes the whole session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*infraAuth.TokenPair, error) {
	if refreshToken == "" {
		return nil, appErrors.NewUnauthorizedError("refresh token required")
	}

	claims, err := s.tokens.Verify(refreshToken, infraAuth.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, infraAuth.ErrTokenExpired) {
			return nil, appErrors.NewTokenExpiredError("refresh token")
		}
		return nil, appErrors.NewTokenInvalidError("refresh token")
	}

	sess, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, cache.ErrSessionNotFound) {
			return nil, appErrors.NewSessionExpiredError()
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	pair, err := s.tokens.Generate(sess.UserID, sess.ID, sess.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	err = s.sessions.Rotate(ctx, sess.ID, claims.ID, pair.RefreshJTI, s.tokens.RefreshTTL())
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrRefreshReused):
		s.logger.Warnw("refresh token reuse detected, revoking session",
			"user_id", sess.UserID, "session_id", sess.ID)
		if delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			s.logger.Errorw("failed to revoke session", "error", delErr, "session_id", sess.ID)
		}
		return nil, appErrors.NewRefreshReusedError()
	case errors.Is(err, cache.ErrSessionNotFound):
		return nil, appErrors.NewSessionExpiredError()
	default:
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	s.logger.Debugw("session refreshed", "user_id", sess.UserID, "session_id", sess.ID)
	return pair, nil
}

// Logout ends the session named by either token. Missing or unusable
// tokens are not an error.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	sessionID := s.sessionIDFrom(accessToken, infraAuth.TokenTypeAccess)
	if sessionID == "" {
		sessionID = s.sessionIDFrom(refreshToken, infraAuth.TokenTypeRefresh)
	}
	if sessionID == "" {
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.logger.Infow("session logged out", "session_id", sessionID)
	return nil
}

func (s *Service) sessionIDFrom(token string, typ infraAuth.TokenType) string {
	if token == "" {
		return ""
	}
	claims, err := s.tokens.Verify(token, typ)
	if err != nil {
		return ""
	}
	return claims.SessionID
}

func (s *Service) LogoutAll(ctx context.Context, userID string) (int, error) {
	n, err := s.sessions.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	s.logger.Infow("all sessions logged out", "user_id", userID, "count", n)
	return n, nil
}

// EnsureBootstrapAdmin creates the configured admin account when no ADMIN
// exists yet. An empty email disables it.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}
	if password == "" {
		return appErrors.NewValidationError("bootstrap admin password is required")
	}

	exists, err := s.users.ExistsWithRole(ctx, authorization.RoleAdmin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	account, err := user.NewUser(strings.ToLower(strings.TrimSpace(email)), hash, authorization.RoleAdmin)
	if err != nil {
		return appErrors.NewValidationError("invalid bootstrap admin", err.Error())
	}
	if err := s.users.Create(ctx, account); err != nil {
		return err
	}

	s.logger.Infow("bootstrap admin created", "user_id", account.ID(), "email", account.Email())
	return nil
}
