package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	ErrorTypeTokenExpired       ErrorType = "token_expired"
	ErrorTypeTokenInvalid       ErrorType = "token_invalid"
	ErrorTypeSessionExpired     ErrorType = "session_expired"
	ErrorTypeRefreshReused      ErrorType = "refresh_reused"
)

// AuthError is an AppError with logging hints for authentication failures.
type AuthError struct {
	*AppError
	// ShouldLog is false for expected failures such as normal expiry.
	ShouldLog bool
	// SecurityEvent marks failures worth tracking (tampering, replay).
	SecurityEvent bool
}

func (e *AuthError) Error() string {
	return e.AppError.Error()
}

func (e *AuthError) Unwrap() error {
	return e.AppError
}

func newAuthError(t ErrorType, message, details string, shouldLog, security bool) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    t,
			Message: message,
			Code:    http.StatusUnauthorized,
			Details: details,
		},
		ShouldLog:     shouldLog,
		SecurityEvent: security,
	}
}

// NewInvalidCredentialsError does not reveal which of email or password was wrong.
func NewInvalidCredentialsError() *AuthError {
	return newAuthError(ErrorTypeInvalidCredentials, "Invalid email or password", "", false, true)
}

func NewTokenExpiredError(tokenType string) *AuthError {
	return newAuthError(ErrorTypeTokenExpired, fmt.Sprintf("%s has expired", tokenType), "Please login again", false, false)
}

func NewTokenInvalidError(tokenType string) *AuthError {
	return newAuthError(ErrorTypeTokenInvalid, fmt.Sprintf("Invalid %s", tokenType), "Token is invalid or has been revoked", true, true)
}

func NewSessionExpiredError() *AuthError {
	return newAuthError(ErrorTypeSessionExpired, "Session has expired", "Please login again", false, false)
}

// NewRefreshReusedError is returned when a rotated refresh token is presented again.
func NewRefreshReusedError() *AuthError {
	return newAuthError(ErrorTypeRefreshReused, "Refresh token already used", "Session revoked, please login again", true, true)
}

func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

func IsAuthError(err error) bool {
	return GetAuthError(err) != nil
}

// ShouldLogAuthError defaults to true for errors that are not AuthErrors.
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}

func IsSecurityEvent(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
