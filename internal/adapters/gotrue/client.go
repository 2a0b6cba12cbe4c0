// Package gotrue is a minimal client for the hosted auth provider's
// password sign-in and sign-up endpoints.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tasks-edge-api/internal/adapters"

	"github.com/sirupsen/logrus"
)

const service = "gotrue"

// Credentials are the email/password pair a caller signs in or up with
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the part of the provider's session answer the API exposes.
// AccessToken is empty when sign-up requires email confirmation.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// Client talks to the provider's /auth/v1 endpoints
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *logrus.Logger
}

// NewClient creates a client for the project at baseURL
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
		logger:  logger,
	}
}

// SignIn exchanges credentials for a session
func (c *Client) SignIn(ctx context.Context, creds Credentials) (*Session, error) {
	var session Session
	if err := c.post(ctx, "sign_in", "/auth/v1/token?grant_type=password", creds, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new user. The provider answers either with a session
// or, when confirmation is pending, with the user only.
func (c *Client) SignUp(ctx context.Context, creds Credentials) (*Session, error) {
	var answer struct {
		Session
		Nested *Session `json:"session"`
	}
	if err := c.post(ctx, "sign_up", "/auth/v1/signup", creds, &answer); err != nil {
		return nil, err
	}
	if answer.Nested != nil {
		return answer.Nested, nil
	}
	return &answer.Session, nil
}

func (c *Client) post(ctx context.Context, op, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("operation", op).Warn("Auth provider unreachable")
		return adapters.Unavailable(service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return adapters.Unavailable(service, err)
	}

	c.logger.WithFields(logrus.Fields{
		"operation": op,
		"status":    resp.StatusCode,
		"duration":  time.Since(start),
	}).Debug("Auth provider answered")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return adapters.NewGatewayError(service, resp.StatusCode, errorMessage(raw), raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	return nil
}

// errorMessage picks the message out of the provider's error document,
// whose field name varies between endpoints and versions.
func errorMessage(raw []byte) string {
	var doc struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return strings.TrimSpace(string(raw))
	}
	for _, m := range []string{doc.Msg, doc.Message, doc.ErrorDescription, doc.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}
