// Package handlers implements the edge functions on top of the services:
// tasks, auth, push and upload. Every handler is a lambda.HandlerFunc so
// the same chain runs behind API Gateway and the local gin server.
package handlers

import (
	"tasks-edge-api/internal/middleware"
	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

const (
	// MaxJSONBodyBytes bounds task, auth and push bodies
	MaxJSONBodyBytes = 1 << 20

	// MaxUploadBytes bounds uploaded images (the Lambda payload limit is 6MB)
	MaxUploadBytes = 6 << 20
)

// Handlers groups the edge function handlers
type Handlers struct {
	Tasks  *TaskHandler
	Auth   *AuthHandler
	Push   *PushHandler
	Upload *UploadHandler

	logger *logrus.Logger
}

// NewHandlers builds every handler from the service container
func NewHandlers(sc *services.ServiceContainer, logger *logrus.Logger) *Handlers {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handlers{
		Tasks:  NewTaskHandler(sc.TaskService, logger),
		Auth:   NewAuthHandler(sc.AuthService, logger),
		Push:   NewPushHandler(sc.PushService, logger),
		Upload: NewUploadHandler(sc.FileRelayService, logger),
		logger: logger,
	}
}

// Wrap applies the decorators shared by every function. CORS is outermost so
// pre-flight requests and error envelopes both carry the CORS headers.
func Wrap(h lambda.HandlerFunc, logger *logrus.Logger, extra ...lambda.Middleware) lambda.HandlerFunc {
	mw := []lambda.Middleware{
		middleware.CORS(),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.ErrorEnvelope(logger),
		middleware.AuditLogger(logger),
	}
	return lambda.Chain(h, append(mw, extra...)...)
}

// TasksFunction returns the decorated tasks function
func (hs *Handlers) TasksFunction() lambda.HandlerFunc {
	return Wrap(hs.Tasks.Handle, hs.logger, middleware.BodyLimit(MaxJSONBodyBytes))
}

// AuthFunction returns the decorated auth function
func (hs *Handlers) AuthFunction() lambda.HandlerFunc {
	return Wrap(hs.Auth.Handle, hs.logger, middleware.BodyLimit(MaxJSONBodyBytes))
}

// PushFunction returns the decorated push function
func (hs *Handlers) PushFunction() lambda.HandlerFunc {
	return Wrap(hs.Push.Handle, hs.logger, middleware.BodyLimit(MaxJSONBodyBytes))
}

// UploadFunction returns the decorated upload function
func (hs *Handlers) UploadFunction() lambda.HandlerFunc {
	return Wrap(hs.Upload.Handle, hs.logger, middleware.BodyLimit(MaxUploadBytes))
}
