// Package adapters holds the clients for the third-party services the edge
// functions proxy to.
package adapters

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks failures to reach an upstream service at all
var ErrUnavailable = errors.New("upstream service unavailable")

// GatewayError is a non-success answer from an upstream service
type GatewayError struct {
	Service    string // "gotrue", "fcm", "telegram"
	StatusCode int
	Message    string // human-readable message extracted from the body
	Body       []byte // raw response body
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Body) > 0 {
		return string(e.Body)
	}
	return fmt.Sprintf("%s responded with status %d", e.Service, e.StatusCode)
}

// NewGatewayError creates a GatewayError
func NewGatewayError(service string, status int, message string, body []byte) *GatewayError {
	return &GatewayError{
		Service:    service,
		StatusCode: status,
		Message:    message,
		Body:       body,
	}
}

// Unavailable wraps a transport failure for service
func Unavailable(service string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, service, err)
}

// IsGatewayError reports whether err carries an upstream error answer
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
