package utils

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/shared/config"
)

const (
	DefaultAccessTokenCookie  = "access_token"
	DefaultRefreshTokenCookie = "refresh_token"

	// CSRFTokenCookie is readable by scripts so the dashboard can echo it
	// back in CSRFTokenHeader.
	CSRFTokenCookie = "csrf_token"
	CSRFTokenHeader = "X-CSRF-Token"
)

// AccessCookieName returns the configured access-token cookie name.
func AccessCookieName(cfg config.CookieConfig) string {
	if cfg.AccessTokenName == "" {
		return DefaultAccessTokenCookie
	}
	return cfg.AccessTokenName
}

// RefreshCookieName returns the configured refresh-token cookie name.
func RefreshCookieName(cfg config.CookieConfig) string {
	if cfg.RefreshTokenName == "" {
		return DefaultRefreshTokenCookie
	}
	return cfg.RefreshTokenName
}

// SetAuthCookies sets access and refresh token as HttpOnly cookies
func SetAuthCookies(c *gin.Context, cookieConfig config.CookieConfig, accessToken, refreshToken string, accessMaxAge, refreshMaxAge int) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))

	c.SetCookie(
		AccessCookieName(cookieConfig),
		accessToken,
		accessMaxAge,
		cookiePath(cookieConfig),
		cookieConfig.Domain,
		cookieConfig.Secure,
		true,
	)

	c.SetCookie(
		RefreshCookieName(cookieConfig),
		refreshToken,
		refreshMaxAge,
		cookiePath(cookieConfig),
		cookieConfig.Domain,
		cookieConfig.Secure,
		true,
	)

	c.SetCookie(
		CSRFTokenCookie,
		NewCSRFToken(),
		refreshMaxAge,
		cookiePath(cookieConfig),
		cookieConfig.Domain,
		cookieConfig.Secure,
		false,
	)
}

// NewCSRFToken returns 32 random bytes, base64url encoded.
func NewCSRFToken() string {
	b := make([]byte, 32)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// ClearAuthCookies clears the token and CSRF cookies
func ClearAuthCookies(c *gin.Context, cookieConfig config.CookieConfig) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))

	for _, name := range []string{AccessCookieName(cookieConfig), RefreshCookieName(cookieConfig)} {
		c.SetCookie(name, "", -1, cookiePath(cookieConfig), cookieConfig.Domain, cookieConfig.Secure, true)
	}
	c.SetCookie(CSRFTokenCookie, "", -1, cookiePath(cookieConfig), cookieConfig.Domain, cookieConfig.Secure, false)
}

// GetTokenFromCookie returns the named cookie or "" when absent.
func GetTokenFromCookie(c *gin.Context, cookieName string) string {
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

func cookiePath(cfg config.CookieConfig) string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}

// parseSameSite converts string to http.SameSite
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "Strict":
		return http.SameSiteStrictMode
	case "Lax":
		return http.SameSiteLaxMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
