package handlers

import (
	"context"
	"net/http"
	"sync"

	"tasks-edge-api/internal/middleware"
	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// ServicesLoader returns the services an invocation runs against
type ServicesLoader func(ctx context.Context) (*services.ServiceContainer, *logrus.Logger, error)

// Lazy defers building a function until its first invocation, so a cold
// start that cannot reach its dependencies still answers with an envelope.
// The built function is reused for as long as load returns the same
// container.
func Lazy(load ServicesLoader, pick func(*Handlers) lambda.HandlerFunc) lambda.HandlerFunc {
	var (
		mu    sync.Mutex
		from  *services.ServiceContainer
		built lambda.HandlerFunc
	)

	return func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		sc, logger, err := load(ctx)
		if err != nil {
			return unavailable(err, logger)(ctx, req)
		}

		mu.Lock()
		if built == nil || from != sc {
			built = pick(NewHandlers(sc, logger))
			from = sc
		}
		fn := built
		mu.Unlock()

		return fn(ctx, req)
	}
}

func unavailable(cause error, logger *logrus.Logger) lambda.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return Wrap(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		return nil, &middleware.StatusError{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
			Err:     cause,
		}
	}, logger)
}
