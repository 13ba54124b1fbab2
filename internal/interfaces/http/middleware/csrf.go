package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/shared/config"
	"github.com/inventra-labs/gatekeeper/internal/shared/utils"
)

// csrfExemptPaths carry no session to protect, or must keep working once
// the CSRF cookie has expired alongside the access token.
var csrfExemptPaths = map[string]struct{}{
	"/auth/login":   {},
	"/auth/refresh": {},
	"/auth/logout":  {},
}

// CSRF validates the double-submit token on mutating requests: the
// csrf_token cookie must equal the X-CSRF-Token header. A request that
// carries neither session cookie is passed on so authentication answers
// it with 401.
func CSRF(cookies config.CookieConfig) gin.HandlerFunc {
	sessionCookies := []string{utils.AccessCookieName(cookies), utils.RefreshCookieName(cookies)}

	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if _, ok := csrfExemptPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if !hasAnyCookie(c, sessionCookies) {
			c.Next()
			return
		}

		cookieToken, err := c.Cookie(utils.CSRFTokenCookie)
		if err != nil || cookieToken == "" {
			utils.ErrorResponse(c, http.StatusForbidden, "missing CSRF token")
			c.Abort()
			return
		}

		headerToken := c.GetHeader(utils.CSRFTokenHeader)
		if headerToken == "" {
			utils.ErrorResponse(c, http.StatusForbidden, "missing CSRF token header")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1 {
			utils.ErrorResponse(c, http.StatusForbidden, "invalid CSRF token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func hasAnyCookie(c *gin.Context, names []string) bool {
	for _, name := range names {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return true
		}
	}
	return false
}
