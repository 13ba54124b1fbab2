// Package gate decides, per dashboard navigation, whether to render the
// page or redirect to login, home or the unauthorized page.
package gate

import (
	"net/url"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
)

const (
	LoginPath        = "/auth/login"
	HomePath         = "/dashboard"
	UnauthorizedPath = "/unauthorized"
)

// Session is the per-navigation view of the caller. Role is empty when not
// authenticated.
type Session struct {
	Authenticated bool
	Role          authorization.Role
}

type Outcome int

const (
	Allow Outcome = iota
	Redirect
)

func (o Outcome) String() string {
	if o == Redirect {
		return "redirect"
	}
	return "allow"
}

type Decision struct {
	Outcome  Outcome
	Location string
}

func allow() Decision { return Decision{Outcome: Allow} }

func redirect(location string) Decision {
	return Decision{Outcome: Redirect, Location: location}
}

// Decide applies the route tables to one navigation. The first matching rule
// wins:
//
//  1. the root path always goes to login
//  2. public paths admit anonymous callers and send signed-in ones home
//  3. paths that need a session send anonymous callers to login with a
//     returnUrl of the original path and query
//  4. a non-empty role list rejects other roles to the unauthorized page
//  5. everything else is allowed
func (t *Table) Decide(path, rawQuery string, s Session) Decision {
	if path == "" || path == "/" {
		return redirect(LoginPath)
	}

	if matchesAny(path, t.public) {
		if s.Authenticated {
			return redirect(HomePath)
		}
		return allow()
	}

	rule, restricted := t.restriction(path)
	if (restricted || matchesAny(path, t.authenticated)) && !s.Authenticated {
		target := path
		if rawQuery != "" {
			target += "?" + rawQuery
		}
		return redirect(LoginPath + "?returnUrl=" + url.QueryEscape(target))
	}

	if restricted && len(rule.roles) > 0 && !authorization.HasRole(rule.roles, s.Role) {
		return redirect(UnauthorizedPath)
	}

	return allow()
}
