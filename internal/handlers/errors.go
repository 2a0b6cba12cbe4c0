package handlers

import (
	"errors"
	"net/http"

	"tasks-edge-api/internal/middleware"
	"tasks-edge-api/internal/repositories"
)

var (
	// ErrInvalidURL is returned when a request does not target the task resource
	ErrInvalidURL = errors.New("Invalid URL")

	// ErrInvalidAuthMethod is returned for auth paths other than sign-in and sign-up
	ErrInvalidAuthMethod = errors.New("Invalid auth method")
)

// RouteError records a request path no handler recognises
type RouteError struct {
	Path string
	Err  error
}

func (e *RouteError) Error() string {
	return e.Err.Error()
}

func (e *RouteError) Unwrap() error {
	return e.Err
}

func routeNotFound(path string, err error) error {
	return middleware.NewStatusError(http.StatusNotFound, &RouteError{Path: path, Err: err})
}

func badRequest(err error) error {
	return middleware.NewStatusError(http.StatusBadRequest, err)
}

// storeFailure answers a failed task operation with 400 and the store's own
// message, without the service's wrapping
func storeFailure(err error) error {
	var repoErr *repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return &middleware.StatusError{Status: http.StatusBadRequest, Message: repoErr.Error(), Err: err}
	}
	return badRequest(err)
}

// relayFailure answers a failed push or upload relay with 500
func relayFailure(err error) error {
	return middleware.NewStatusError(http.StatusInternalServerError, err)
}
