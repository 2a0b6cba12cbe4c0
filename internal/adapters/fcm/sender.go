package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasks-edge-api/internal/adapters"

	"github.com/sirupsen/logrus"
)

// DefaultEndpoint is the public gateway host
const DefaultEndpoint = "https://fcm.googleapis.com"

// Tokens supplies bearer tokens for the gateway
type Tokens interface {
	Token(ctx context.Context) (string, error)
}

// Sender posts messages to the gateway's messages:send endpoint
type Sender struct {
	endpoint  string
	projectID string
	tokens    Tokens
	http      *http.Client
	logger    *logrus.Logger
}

// NewSender creates a sender for the project
func NewSender(endpoint, projectID string, tokens Tokens, httpClient *http.Client, logger *logrus.Logger) *Sender {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sender{
		endpoint:  strings.TrimRight(endpoint, "/"),
		projectID: projectID,
		tokens:    tokens,
		http:      httpClient,
		logger:    logger,
	}
}

// Send forwards message verbatim and returns the gateway's JSON answer
func (s *Sender) Send(ctx context.Context, message json.RawMessage) (json.RawMessage, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, url.PathEscape(s.projectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(message))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, adapters.Unavailable("fcm", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, adapters.Unavailable("fcm", err)
	}

	s.logger.WithFields(logrus.Fields{
		"project":  s.projectID,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Info("Push gateway answered")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, adapters.NewGatewayError("fcm", resp.StatusCode, gatewayMessage(raw), raw)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("push gateway returned invalid JSON")
	}
	return json.RawMessage(raw), nil
}

func gatewayMessage(raw []byte) string {
	var doc struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return doc.Error.Message
}
