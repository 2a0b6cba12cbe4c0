package handlers

import (
	"context"
	"net/http"

	"tasks-edge-api/internal/middleware"
	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// UploadHandler serves the file relay function
type UploadHandler struct {
	relay  services.FileRelayService
	logger *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(relay services.FileRelayService, logger *logrus.Logger) *UploadHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &UploadHandler{relay: relay, logger: logger}
}

// @Summary Upload an image
// @Description Relays the raw request body to the file host and returns a download link per stored rendition
// @Tags upload
// @Accept octet-stream
// @Produce json
// @Success 200 {object} services.RelayResult
// @Failure 413 {object} middleware.ErrorBody
// @Failure 500 {object} middleware.ErrorBody
// @Router /upload [post]
func (h *UploadHandler) Handle(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	result, err := h.relay.Relay(ctx, req.Body)
	if err != nil {
		return nil, relayFailure(err)
	}
	return middleware.JSONResponse(http.StatusOK, result), nil
}
