package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"tasks-edge-api/pkg/lambda"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request ID in and out
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID stored by RequestID
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestID reuses the caller's X-Request-ID or generates one, stores it in
// the context and echoes it on the response
func RequestID() lambda.Middleware {
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
			requestID := req.Header(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			ctx = context.WithValue(ctx, requestIDKey, requestID)

			resp, err := next(ctx, req)
			if resp != nil {
				resp.SetHeader(RequestIDHeader, requestID)
			}
			return resp, err
		}
	}
}

// Logging writes one structured line per request
func Logging(logger *logrus.Logger) lambda.Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			fields := logrus.Fields{
				"request_id": RequestIDFromContext(ctx),
				"method":     req.Method,
				"path":       req.Path,
				"status":     status,
				"latency_ms": float64(time.Since(start).Nanoseconds()) / 1e6,
				"user_agent": req.Header("User-Agent"),
			}
			if err != nil {
				fields["error"] = err.Error()
			}

			entry := logger.WithFields(fields)
			switch {
			case err != nil || status >= 500:
				entry.Error("Request failed")
			case status >= 400:
				entry.Warn("Request completed with client error")
			default:
				entry.Info("Request completed")
			}

			return resp, err
		}
	}
}

// AuditLogger logs write operations with the resource they touched
func AuditLogger(logger *logrus.Logger) lambda.Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next lambda.HandlerFunc) lambda.HandlerFunc {
		return func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
			operation := auditOperation(req.Method)
			if operation == "" {
				return next(ctx, req)
			}

			start := time.Now()
			resp, err := next(ctx, req)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			fields := logrus.Fields{
				"audit":          true,
				"request_id":     RequestIDFromContext(ctx),
				"operation":      operation,
				"method":         req.Method,
				"path":           req.Path,
				"status_code":    status,
				"operation_time": time.Since(start).Milliseconds(),
			}
			if resource, id := resourceFromPath(req.Path); resource != "" {
				fields["resource_type"] = resource
				if id != "" {
					fields["resource_id"] = id
				}
			}

			logger.WithFields(fields).Info("Audit log")
			return resp, err
		}
	}
}

func auditOperation(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPut, http.MethodPatch:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	}
	return ""
}

// resourceFromPath returns the first known resource segment of path and the
// segment after it
func resourceFromPath(path string) (string, string) {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	for i, seg := range segments {
		switch seg {
		case "tasks", "auth", "push", "upload":
			if i+1 < len(segments) {
				return seg, segments[i+1]
			}
			return seg, ""
		}
	}
	return "", ""
}
