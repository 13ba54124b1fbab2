package gate

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inventra-labs/gatekeeper/internal/console/sessionvalidator"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

type SessionValidator interface {
	Validate(ctx context.Context, accessToken string) sessionvalidator.Result
}

// Gate runs Decide for every request before the page handler. It keeps no
// state between requests.
type Gate struct {
	table      *Table
	validator  SessionValidator
	cookieName string
	logger     logger.Interface
}

func New(table *Table, validator SessionValidator, cookieName string, log logger.Interface) *Gate {
	return &Gate{
		table:      table,
		validator:  validator,
		cookieName: cookieName,
		logger:     log,
	}
}

// Resolve rebuilds the session from the access-token cookie.
func (g *Gate) Resolve(c *gin.Context) (Session, sessionvalidator.Result) {
	token, err := c.Cookie(g.cookieName)
	if err != nil || token == "" {
		return Session{}, sessionvalidator.Result{}
	}

	res := g.validator.Validate(c.Request.Context(), token)
	if !res.Authenticated {
		return Session{}, res
	}
	return Session{Authenticated: true, Role: res.Role}, res
}

func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, res := g.Resolve(c)

		d := g.table.Decide(c.Request.URL.Path, c.Request.URL.RawQuery, session)
		if d.Outcome == Redirect {
			g.logger.Debugw("gate redirect",
				"path", c.Request.URL.Path,
				"location", d.Location,
				"authenticated", session.Authenticated,
				"role", session.Role,
			)
			c.Redirect(http.StatusTemporaryRedirect, d.Location)
			c.Abort()
			return
		}

		if session.Authenticated {
			c.Set(constants.ContextKeyUserID, res.UserID)
			c.Set(constants.ContextKeyUserEmail, res.Email)
			c.Set(constants.ContextKeyUserRole, string(session.Role))
		}
		c.Next()
	}
}
