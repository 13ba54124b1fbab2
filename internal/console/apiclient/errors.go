package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the backend, decoded from the
// response envelope when one is present.
type APIError struct {
	Status  int
	Type    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.Status)
	}
	return fmt.Sprintf("api error: status=%d type=%s: %s", e.Status, e.Type, e.Message)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err carries a 401.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err carries a 403.
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}
