// Package middleware holds the decorators shared by every edge function:
// CORS, the JSON error envelope, request IDs and structured logging.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// CORS response headers sent on every response, errors included
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey",
	"Access-Control-Allow-Methods": "POST, GET, OPTIONS, PUT, DELETE",
}

// StatusError is an error that carries the HTTP status it should be
// answered with. Message is what the caller sees.
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError creates a StatusError whose message is err's message
func NewStatusError(status int, err error) *StatusError {
	return &StatusError{Status: status, Message: err.Error(), Err: err}
}

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Error string `json:"error"`
}

// CORS answers pre-flight requests with 200 "ok" and adds the CORS headers
// to every response
func CORS() lambda.Middleware {
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
			if req.Method == http.MethodOptions {
				resp := &lambda.Response{StatusCode: http.StatusOK, Body: []byte("ok")}
				applyCORS(resp)
				return resp, nil
			}

			resp, err := next(ctx, req)
			if resp != nil {
				applyCORS(resp)
			}
			return resp, err
		}
	}
}

func applyCORS(resp *lambda.Response) {
	for k, v := range corsHeaders {
		resp.SetHeader(k, v)
	}
}

// ErrorEnvelope converts returned errors and recovered panics into the JSON
// error envelope. Errors without an explicit status, panics included, are
// answered with 400 and their own message.
func ErrorEnvelope(logger *logrus.Logger) lambda.Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (resp *lambda.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"request_id": RequestIDFromContext(ctx),
						"method":     req.Method,
						"path":       req.Path,
						"panic":      fmt.Sprint(r),
					}).Error("Handler panicked")
					resp, err = ErrorResponse(http.StatusBadRequest, fmt.Sprint(r)), nil
				}
			}()

			resp, err = next(ctx, req)
			if err == nil {
				return resp, nil
			}

			status, message := StatusOf(err)
			entry := logger.WithFields(logrus.Fields{
				"request_id": RequestIDFromContext(ctx),
				"method":     req.Method,
				"path":       req.Path,
				"status":     status,
				"error":      err.Error(),
			})
			if isClaimError(err) {
				entry = entry.WithField("auth_failure", true)
			}
			if status >= http.StatusInternalServerError {
				entry.Error("Request failed")
			} else {
				entry.Warn("Request rejected")
			}

			return ErrorResponse(status, message), nil
		}
	}
}

// StatusOf maps an error onto a status code and caller-facing message
func StatusOf(err error) (int, string) {
	var statusErr *StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Status, statusErr.Error()
	case errors.Is(err, ErrMissingCredential):
		return http.StatusUnauthorized, ErrMissingCredential.Error()
	case isClaimError(err):
		return http.StatusUnauthorized, ErrInvalidToken.Error()
	default:
		return http.StatusBadRequest, err.Error()
	}
}

// JSONResponse encodes body as a JSON response
func JSONResponse(status int, body interface{}) *lambda.Response {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"failed to encode response"}`)
	}
	return &lambda.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       payload,
	}
}

// ErrorResponse builds the error envelope response
func ErrorResponse(status int, message string) *lambda.Response {
	return JSONResponse(status, ErrorBody{Error: message})
}

// BodyLimit rejects requests whose body exceeds maxBytes with 413
func BodyLimit(maxBytes int) lambda.Middleware {
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
			if maxBytes > 0 && len(req.Body) > maxBytes {
				return nil, &StatusError{
					Status:  http.StatusRequestEntityTooLarge,
					Message: fmt.Sprintf("Request body size (%d bytes) exceeds maximum allowed size (%d bytes)", len(req.Body), maxBytes),
				}
			}
			return next(ctx, req)
		}
	}
}
