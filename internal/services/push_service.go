package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrPushNotConfigured is returned when no service account could be loaded
var ErrPushNotConfigured = errors.New("push gateway is not configured")

// MessageSender is the subset of the gateway client the service uses
type MessageSender interface {
	Send(ctx context.Context, message json.RawMessage) (json.RawMessage, error)
}

// pushService implements the PushService interface
type pushService struct {
	sender MessageSender
	logger *logrus.Logger
}

// NewPushService creates a push service. A nil sender yields a service that
// fails every call with ErrPushNotConfigured.
func NewPushService(sender MessageSender, logger *logrus.Logger) PushService {
	if logger == nil {
		logger = logrus.New()
	}
	return &pushService{sender: sender, logger: logger}
}

// Send forwards the caller's message unchanged
func (s *pushService) Send(ctx context.Context, message json.RawMessage) (json.RawMessage, error) {
	if s.sender == nil {
		return nil, ErrPushNotConfigured
	}
	if len(message) == 0 || !json.Valid(message) {
		return nil, fmt.Errorf("push message must be a JSON document")
	}

	answer, err := s.sender.Send(ctx, message)
	if err != nil {
		s.logger.WithError(err).Warn("Push relay failed")
		return nil, err
	}
	return answer, nil
}
