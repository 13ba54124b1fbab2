package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventra-labs/gatekeeper/internal/application/auth"
	infraAuth "github.com/inventra-labs/gatekeeper/internal/infrastructure/auth"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/http/handlers/testutil"
	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/config"
	"github.com/inventra-labs/gatekeeper/internal/shared/errors"
)

type mockAuthService struct {
	loginResult   *auth.LoginResult
	loginErr      error
	refreshResult *infraAuth.TokenPair
	refreshErr    error
	logoutErr     error
	revoked       int
	logoutAllErr  error

	gotRefresh string
	gotAccess  string
	gotUserID  string
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	return m.loginResult, m.loginErr
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*infraAuth.TokenPair, error) {
	m.gotRefresh = refreshToken
	return m.refreshResult, m.refreshErr
}

func (m *mockAuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	m.gotAccess = accessToken
	m.gotRefresh = refreshToken
	return m.logoutErr
}

func (m *mockAuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	m.gotUserID = userID
	return m.revoked, m.logoutAllErr
}

func testTokenPair() *infraAuth.TokenPair {
	return &infraAuth.TokenPair{
		AccessToken:      "access-1",
		RefreshToken:     "refresh-1",
		RefreshJTI:       "jti-1",
		ExpiresIn:        900,
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func newTestAuthHandler(svc AuthService) *AuthHandler {
	return NewAuthHandler(svc, config.CookieConfig{Path: "/", SameSite: "Lax"}, testutil.NewMockLogger())
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success sets both cookies and returns the user", func(t *testing.T) {
		svc := &mockAuthService{loginResult: &auth.LoginResult{
			Identity: auth.Identity{UserID: "u-1", Email: "admin@example.com", Role: authorization.RoleAdmin},
			Tokens:   testTokenPair(),
		}}
		h := newTestAuthHandler(svc)

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/login", LoginRequest{
			Email: "admin@example.com", Password: "secret-password",
		})
		h.Login(c)

		require.Equal(t, http.StatusOK, w.Code)

		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.True(t, resp.Success)

		var data SessionResponse
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, "u-1", data.User.ID)
		assert.Equal(t, "ADMIN", data.User.Role)

		access := testutil.ResponseCookie(w, "access_token")
		require.NotNil(t, access)
		assert.Equal(t, "access-1", access.Value)
		assert.True(t, access.HttpOnly)
		assert.Equal(t, 900, access.MaxAge)

		refresh := testutil.ResponseCookie(w, "refresh_token")
		require.NotNil(t, refresh)
		assert.Equal(t, "refresh-1", refresh.Value)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{loginErr: errors.NewInvalidCredentialsError()})

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/login", LoginRequest{
			Email: "admin@example.com", Password: "wrong",
		})
		h.Login(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, "invalid_credentials", resp.Error.Type)
		assert.Nil(t, testutil.ResponseCookie(w, "access_token"))
	})

	t.Run("malformed email is rejected before the service", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{})

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/login", map[string]string{
			"email": "not-an-email", "password": "x",
		})
		h.Login(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		assert.Equal(t, "validation_error", resp.Error.Type)
		assert.Contains(t, resp.Error.Details, "email")
	})
}

func TestAuthHandler_Validate(t *testing.T) {
	h := newTestAuthHandler(&mockAuthService{})

	t.Run("returns the identity set by the middleware", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodGet, "/auth/validate", nil)
		testutil.SetAuthContext(c, "u-2", "mod@example.com", "MODERATOR")
		h.Validate(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp testutil.APIResponse
		require.NoError(t, testutil.ParseResponse(w, &resp))
		var data SessionResponse
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, UserResponse{ID: "u-2", Email: "mod@example.com", Role: "MODERATOR"}, data.User)
	})

	t.Run("no identity", func(t *testing.T) {
		c, w := testutil.NewTestContext(http.MethodGet, "/auth/validate", nil)
		h.Validate(c)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Run("rotates cookies", func(t *testing.T) {
		next := testTokenPair()
		next.AccessToken = "access-2"
		next.RefreshToken = "refresh-2"
		svc := &mockAuthService{refreshResult: next}
		h := newTestAuthHandler(svc)

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/refresh", nil)
		testutil.AddCookie(c, "refresh_token", "refresh-1")
		h.RefreshToken(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "refresh-1", svc.gotRefresh)
		assert.Equal(t, "access-2", testutil.ResponseCookie(w, "access_token").Value)
		assert.Equal(t, "refresh-2", testutil.ResponseCookie(w, "refresh_token").Value)
	})

	t.Run("reuse clears cookies", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{refreshErr: errors.NewRefreshReusedError()})

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/refresh", nil)
		testutil.AddCookie(c, "refresh_token", "refresh-1")
		h.RefreshToken(c)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		cleared := testutil.ResponseCookie(w, "refresh_token")
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("passes both cookies and clears them", func(t *testing.T) {
		svc := &mockAuthService{}
		h := newTestAuthHandler(svc)

		c, w := testutil.NewTestContext(http.MethodPost, "/auth/logout", nil)
		testutil.AddCookie(c, "access_token", "a")
		testutil.AddCookie(c, "refresh_token", "r")
		h.Logout(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "a", svc.gotAccess)
		assert.Equal(t, "r", svc.gotRefresh)
		assert.NotNil(t, testutil.ResponseCookie(w, "access_token"))
	})

	t.Run("no cookies still succeeds", func(t *testing.T) {
		h := newTestAuthHandler(&mockAuthService{})
		c, w := testutil.NewTestContext(http.MethodPost, "/auth/logout", nil)
		h.Logout(c)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	svc := &mockAuthService{revoked: 3}
	h := newTestAuthHandler(svc)

	c, w := testutil.NewTestContext(http.MethodPost, "/auth/logout-all", nil)
	testutil.SetAuthContext(c, "u-9", "user@example.com", "USER")
	h.LogoutAll(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-9", svc.gotUserID)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	var data LogoutAllResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 3, data.Revoked)
}
