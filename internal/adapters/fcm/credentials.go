// Package fcm sends messages through the mobile messaging gateway's HTTP v1
// API, authenticating as a service account.
package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"tasks-edge-api/internal/adapters"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauthjwt "golang.org/x/oauth2/jwt"
)

const (
	// MessagingScope is the OAuth2 scope required to send messages
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

	serviceAccountType = "service_account"
)

// ServiceAccount is the subset of a service-account key file the sender needs
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`

	raw []byte
}

// LoadServiceAccount reads a service-account key file
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account: %w", err)
	}
	return ParseServiceAccount(raw)
}

// ParseServiceAccount decodes a service-account key document
func ParseServiceAccount(raw []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("failed to decode service account: %w", err)
	}
	if sa.Type != serviceAccountType {
		return nil, fmt.Errorf("credentials type is %q, want %q", sa.Type, serviceAccountType)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" || sa.ProjectID == "" {
		return nil, fmt.Errorf("service account requires client_email, private_key and project_id")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = google.JWTTokenURL
	}
	sa.raw = raw
	return &sa, nil
}

// TokenSource obtains OAuth2 access tokens with the JWT bearer grant. A new
// token is requested on every call; nothing is cached.
type TokenSource struct {
	config *oauthjwt.Config
	http   *http.Client
}

// NewTokenSource prepares a token source for the account
func NewTokenSource(account *ServiceAccount, httpClient *http.Client, scopes ...string) (*TokenSource, error) {
	if _, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey)); err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if len(scopes) == 0 {
		scopes = []string{MessagingScope}
	}

	cfg, err := google.JWTConfigFromJSON(account.raw, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to build token config: %w", err)
	}
	cfg.TokenURL = account.TokenURI

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenSource{config: cfg, http: httpClient}, nil
}

// Token exchanges a fresh assertion for an access token
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)

	token, err := s.config.TokenSource(ctx).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return "", adapters.NewGatewayError("oauth2", retrieveErr.Response.StatusCode, tokenErrorMessage(retrieveErr), retrieveErr.Body)
		}
		return "", adapters.Unavailable("oauth2", err)
	}
	return token.AccessToken, nil
}

// tokenErrorMessage picks the most specific message out of a rejected
// token exchange
func tokenErrorMessage(e *oauth2.RetrieveError) string {
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}

	var doc struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(e.Body, &doc); err == nil {
		switch {
		case doc.ErrorDescription != "":
			return doc.ErrorDescription
		case doc.Error != "":
			return doc.Error
		}
	}
	if e.ErrorCode != "" {
		return e.ErrorCode
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		return body
	}
	return http.StatusText(e.Response.StatusCode)
}
