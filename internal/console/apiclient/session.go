package apiclient

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// SessionJar is the client's local session storage: a cookie jar holding
// the access and refresh cookies that can be wiped in one step.
type SessionJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func NewSessionJar() *SessionJar {
	return &SessionJar{jar: newJar()}
}

func newJar() *cookiejar.Jar {
	// cookiejar.New only fails on a bad PublicSuffixList, and nil is valid.
	jar, _ := cookiejar.New(nil)
	return jar
}

func (s *SessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.jar.SetCookies(u, cookies)
}

func (s *SessionJar) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jar.Cookies(u)
}

// Clear drops every stored cookie. Clearing an empty jar is a no-op.
func (s *SessionJar) Clear() {
	s.mu.Lock()
	s.jar = newJar()
	s.mu.Unlock()
}

// Cookie returns the value of the named cookie for u, or "".
func (s *SessionJar) Cookie(u *url.URL, name string) string {
	for _, c := range s.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
