package handlers

import (
	"context"
	"net/http"

	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// PushHandler serves the push relay function
type PushHandler struct {
	push   services.PushService
	logger *logrus.Logger
}

// NewPushHandler creates a new push handler
func NewPushHandler(push services.PushService, logger *logrus.Logger) *PushHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &PushHandler{push: push, logger: logger}
}

// @Summary Send a push notification
// @Description Forwards the request body unchanged to the messaging gateway and returns its answer
// @Tags push
// @Accept json
// @Produce json
// @Param message body object true "Gateway message document"
// @Success 200 {object} object
// @Failure 500 {object} middleware.ErrorBody
// @Router /push [post]
func (h *PushHandler) Handle(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	answer, err := h.push.Send(ctx, req.Body)
	if err != nil {
		return nil, relayFailure(err)
	}

	return &lambda.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       answer,
	}, nil
}
