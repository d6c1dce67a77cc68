package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAuthorization is returned when a callback carries no Authorization header.
	ErrMissingAuthorization = errors.New("missing callback authorization")

	// ErrInvalidAuthorization is returned when the callback Authorization does not match the configured credentials.
	ErrInvalidAuthorization = errors.New("invalid callback authorization")

	// ErrInvalidCallback is returned when a callback body can not be decoded.
	ErrInvalidCallback = errors.New("invalid callback body")

	// ErrNotConfigured is returned when the client has no credentials.
	ErrNotConfigured = errors.New("payment gateway credentials are not configured")
)

// APIError is a non 2xx answer of the gateway.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements error.
func (e *APIError) Error() string {
	return fmt.Sprintf("phonepe: %d %s: %s", e.StatusCode, e.Code, e.Message)
}
