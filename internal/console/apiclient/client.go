// Package apiclient is the dashboard's HTTP client for the gatekeeper API.
// It keeps the session cookies, replays requests after a coordinated token
// refresh, and reports forbidden responses through a deduplicating notifier.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

const (
	pathLogin     = "/auth/login"
	pathRefresh   = "/auth/refresh"
	pathLogout    = "/auth/logout"
	pathLogoutAll = "/auth/logout-all"
	pathValidate  = "/auth/validate"

	// double-submit CSRF pair issued by the API at login and refresh
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// ErrSessionEnded is returned for requests needing a refresh after the
// session has already been ended locally.
var ErrSessionEnded = errors.New("session ended, login required")

// Client is the gatekeeper API client.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	session    *SessionJar
	navigator  Navigator
	notifier   Notifier
	location   func() string
	logger     logger.Interface

	coordinator *Coordinator

	mu    sync.Mutex
	ended bool
}

// Option is a function that configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Its Jar is replaced by the
// client's session jar.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// WithNavigator sets where the client sends the user when the session ends.
func WithNavigator(n Navigator) Option {
	return func(client *Client) {
		client.navigator = n
	}
}

// WithNotifier sets the sink for forbidden notifications.
func WithNotifier(n Notifier) Option {
	return func(client *Client) {
		client.notifier = n
	}
}

// WithLocation sets the function reporting the user's current location,
// carried as returnUrl when redirecting to login.
func WithLocation(fn func() string) Option {
	return func(client *Client) {
		client.location = fn
	}
}

func WithLogger(l logger.Interface) Option {
	return func(client *Client) {
		client.logger = l
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    NewSessionJar(),
		navigator:  NavigatorFunc(func(string) {}),
		location:   func() string { return "" },
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notifier == nil {
		c.notifier = NewDedupNotifier(NotifyFunc(func(string, string) {}), DefaultNotifyWindow)
	}
	c.httpClient.Jar = c.session
	c.coordinator = NewCoordinator(c.Refresh, func(error) { c.EndSession() }, c.logger)
	return c, nil
}

// Session returns the client's cookie storage.
func (c *Client) Session() *SessionJar {
	return c.session
}

// Coordinator returns the refresh coordinator owned by this client.
func (c *Client) Coordinator() *Coordinator {
	return c.coordinator
}

// User is the identity returned by login and validate.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionData struct {
	User User `json:"user"`
}

// Login exchanges credentials for session cookies.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}

	var data sessionData
	if err := c.send(ctx, http.MethodPost, pathLogin, body, &data); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	c.mu.Lock()
	c.ended = false
	c.mu.Unlock()
	return &data.User, nil
}

// Me returns the current identity.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var data sessionData
	if err := c.Do(ctx, http.MethodGet, pathValidate, nil, &data); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &data.User, nil
}

// Refresh rotates the session cookies. It never goes through the
// coordinator and is never retried.
func (c *Client) Refresh(ctx context.Context) error {
	if err := c.send(ctx, http.MethodPost, pathRefresh, nil, nil); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// Logout ends the server session and clears local state. Local state is
// cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.send(ctx, http.MethodPost, pathLogout, nil, nil)
	c.clearLocal()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// LogoutAll ends every session of the current user.
func (c *Client) LogoutAll(ctx context.Context) (int, error) {
	var data struct {
		Revoked int `json:"revoked"`
	}
	err := c.Do(ctx, http.MethodPost, pathLogoutAll, nil, &data)
	c.clearLocal()
	if err != nil {
		return 0, fmt.Errorf("logout all: %w", err)
	}
	return data.Revoked, nil
}

// EndSession clears local session storage and redirects to login with the
// current location. Only the first call after a login redirects.
func (c *Client) EndSession() {
	c.mu.Lock()
	already := c.ended
	c.ended = true
	c.mu.Unlock()

	c.session.Clear()
	if already {
		return
	}
	c.navigator.Redirect(LoginURL(c.location()))
}

func (c *Client) clearLocal() {
	c.mu.Lock()
	c.ended = true
	c.mu.Unlock()
	c.session.Clear()
}

func (c *Client) sessionEnded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// Do performs an API call. A 401 triggers one coordinated refresh and a
// single replay; a 403 is reported through the notifier and returned.
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	generation := c.coordinator.Generation()

	err := c.send(ctx, method, path, body, result)
	if err == nil {
		return nil
	}

	switch {
	case IsForbidden(err):
		c.notifier.Notify(PermissionDeniedKey, forbiddenMessage(err))
		return err
	case !IsUnauthorized(err) || isAuthEndpoint(path):
		return err
	}

	if c.sessionEnded() {
		return fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}

	if refreshErr := c.coordinator.Await(ctx, generation); refreshErr != nil {
		return refreshErr
	}

	// Replayed once; a second 401 is terminal for this request.
	err = c.send(ctx, method, path, body, result)
	if IsForbidden(err) {
		c.notifier.Notify(PermissionDeniedKey, forbiddenMessage(err))
	}
	return err
}

func isAuthEndpoint(path string) bool {
	return path == pathRefresh || path == pathLogin
}

func forbiddenMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "You do not have permission to perform this action"
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// send performs one HTTP round trip and decodes the envelope.
func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Cookie(endpoint, csrfCookieName); token != "" {
		req.Header.Set(csrfHeaderName, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	decodeErr := json.Unmarshal(respBody, &apiResp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && apiResp.Error != nil {
			apiErr.Type = apiResp.Error.Type
			apiErr.Message = apiResp.Error.Message
			apiErr.Details = apiResp.Error.Details
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	if decodeErr != nil {
		return fmt.Errorf("unmarshal response: %w", decodeErr)
	}
	if !apiResp.Success {
		return fmt.Errorf("api error: %s", apiResp.Message)
	}
	if len(apiResp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(apiResp.Data, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return nil
}
