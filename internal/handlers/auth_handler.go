package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"tasks-edge-api/internal/middleware"
	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/lambda"

	"github.com/sirupsen/logrus"
)

// AuthHandler serves the auth function
type AuthHandler struct {
	auth   services.AuthService
	logger *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth services.AuthService, logger *logrus.Logger) *AuthHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// @Summary Sign in or sign up
// @Description Exchanges email and password for an access token (sign-in) or registers a new account (sign-up)
// @Tags auth
// @Accept json
// @Produce json
// @Param action path string true "sign-in or sign-up" Enums(sign-in, sign-up)
// @Param credentials body services.CredentialsRequest true "Credentials"
// @Success 200 {object} services.AuthResult
// @Failure 400 {object} middleware.ErrorBody
// @Failure 404 {object} middleware.ErrorBody
// @Router /auth/{action} [post]
func (h *AuthHandler) Handle(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	action := MatchAuthAction(req.Path)
	if action == AuthActionNone {
		return nil, routeNotFound(req.Path, ErrInvalidAuthMethod)
	}

	var creds services.CredentialsRequest
	if err := json.Unmarshal(req.Body, &creds); err != nil {
		return nil, badRequest(err)
	}

	var (
		result *services.AuthResult
		err    error
	)
	if action == AuthActionSignIn {
		result, err = h.auth.SignIn(ctx, &creds)
	} else {
		result, err = h.auth.SignUp(ctx, &creds)
	}
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(ctx),
			"action":     string(action),
			"error":      err.Error(),
		}).Warn("Auth request failed")
		return nil, badRequest(err)
	}

	return middleware.JSONResponse(http.StatusOK, result), nil
}
