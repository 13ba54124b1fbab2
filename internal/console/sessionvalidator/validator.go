// Package sessionvalidator resolves an access-token cookie to an identity
// with one round trip to the backend's validate endpoint.
package sessionvalidator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inventra-labs/gatekeeper/internal/shared/authorization"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

const validatePath = "/auth/validate"

// maxBodySize bounds how much of the validate response is read.
const maxBodySize = 64 << 10

// Result is the outcome of a validation. Role is empty unless Authenticated.
type Result struct {
	Authenticated bool
	UserID        string
	Email         string
	Role          authorization.Role
}

// Validator calls the validate endpoint. It fails closed: every transport
// error, non-2xx status or malformed body yields an unauthenticated Result.
// It never retries and never touches stored tokens.
type Validator struct {
	endpoint   string
	cookieName string
	httpClient *http.Client
	logger     logger.Interface
}

type Option func(*Validator)

func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) {
		v.httpClient = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(v *Validator) {
		v.httpClient.Timeout = d
	}
}

func WithLogger(l logger.Interface) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

func New(baseURL, cookieName string, opts ...Option) *Validator {
	v := &Validator{
		endpoint:   strings.TrimRight(baseURL, "/") + validatePath,
		cookieName: cookieName,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type validateResponse struct {
	Success bool `json:"success"`
	Data    struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	} `json:"data"`
}

// Validate exchanges accessToken for an identity.
func (v *Validator) Validate(ctx context.Context, accessToken string) Result {
	if accessToken == "" {
		return Result{}
	}

	res, err := v.validate(ctx, accessToken)
	if err != nil {
		v.logger.Warnw("session validation failed, treating as unauthenticated", "error", err)
		return Result{}
	}
	return res
}

func (v *Validator) validate(ctx context.Context, accessToken string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: v.cookieName, Value: accessToken})

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// expired or revoked; not worth a warning
		return Result{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var out validateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Result{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if !out.Success {
		return Result{}, fmt.Errorf("validate answered success=false")
	}

	role, err := authorization.ParseRole(out.Data.User.Role)
	if err != nil {
		return Result{}, fmt.Errorf("validate returned %w", err)
	}

	return Result{
		Authenticated: true,
		UserID:        out.Data.User.ID,
		Email:         out.Data.User.Email,
		Role:          role,
	}, nil
}
