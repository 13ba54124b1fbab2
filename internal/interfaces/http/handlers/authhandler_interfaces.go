package handlers

import (
	"context"

	"github.com/inventra-labs/gatekeeper/internal/application/auth"
	infraAuth "github.com/inventra-labs/gatekeeper/internal/infrastructure/auth"
)

// AuthService is the subset of auth.Service used by AuthHandler.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*infraAuth.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) (int, error)
}
