package apiclient

import "net/url"

// LoginPath is the login entry point the client sends the user back to.
const LoginPath = "/auth/login"

// Navigator moves the user to another location.
type Navigator interface {
	Redirect(location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(location string)

func (f NavigatorFunc) Redirect(location string) { f(location) }

// LoginURL returns the login entry point carrying current as returnUrl.
func LoginURL(current string) string {
	if current == "" {
		return LoginPath
	}
	return LoginPath + "?returnUrl=" + url.QueryEscape(current)
}
