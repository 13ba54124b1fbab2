package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend mimics the gatekeeper API: one valid access token at a time,
// a refresh endpoint that can be held open or made to fail.
type fakeBackend struct {
	*httptest.Server

	mu          sync.Mutex
	accessToken string
	issuedToken string
	failRefresh bool
	forbidden   map[string]bool
	hold        chan struct{}

	refreshCalls   atomic.Int32
	protectedCalls atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{accessToken: "fresh", forbidden: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", b.handleRefresh)
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		token := b.accessToken
		b.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: token, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"user": map[string]string{"id": "u-1", "email": "a@example.com", "role": "ADMIN"}},
		})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("/", b.handleProtected)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	b.mu.Lock()
	hold := b.hold
	b.mu.Unlock()
	if hold != nil {
		<-hold
	}

	b.mu.Lock()
	fail := b.failRefresh
	token := b.accessToken
	if b.issuedToken != "" {
		token = b.issuedToken
	}
	b.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   map[string]string{"type": "token_expired", "message": "refresh token has expired"},
		})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: token, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (b *fakeBackend) handleProtected(w http.ResponseWriter, r *http.Request) {
	b.protectedCalls.Add(1)

	b.mu.Lock()
	token := b.accessToken
	forbidden := b.forbidden[r.URL.Path]
	b.mu.Unlock()

	ck, err := r.Cookie("access_token")
	if err != nil || ck.Value != token {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"success": false,
			"error":   map[string]string{"type": "token_expired", "message": "access token has expired"},
		})
		return
	}
	if forbidden {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"error":   map[string]string{"type": "forbidden", "message": "insufficient permissions"},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string][]string{"ADMIN": {"permission:manage"}},
	})
}

func (b *fakeBackend) holdRefresh() func() {
	ch := make(chan struct{})
	b.mu.Lock()
	b.hold = ch
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (b *fakeBackend) setFailRefresh(v bool) {
	b.mu.Lock()
	b.failRefresh = v
	b.mu.Unlock()
}

func (b *fakeBackend) setForbidden(path string) {
	b.mu.Lock()
	b.forbidden[path] = true
	b.mu.Unlock()
}

func (b *fakeBackend) url(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse(b.URL)
	require.NoError(t, err)
	return u
}

// staleSession puts an expired access token into the client's jar.
func (b *fakeBackend) staleSession(t *testing.T, c *Client) {
	t.Helper()
	c.Session().SetCookies(b.url(t), []*http.Cookie{{Name: "access_token", Value: "stale", Path: "/"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type recordingNavigator struct {
	mu        sync.Mutex
	locations []string
}

func (n *recordingNavigator) Redirect(location string) {
	n.mu.Lock()
	n.locations = append(n.locations, location)
	n.mu.Unlock()
}

func (n *recordingNavigator) Locations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.locations...)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(key, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, key+": "+message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}
