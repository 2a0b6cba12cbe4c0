package fcm

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tasks-edge-api/internal/adapters"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func testAccount(t *testing.T, tokenURI string) (*ServiceAccount, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	raw, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "demo-project",
		"private_key_id": "kid-1",
		"private_key":    string(pemKey),
		"client_email":   "push@demo-project.iam.gserviceaccount.com",
		"token_uri":      tokenURI,
	})
	if err != nil {
		t.Fatalf("marshal account: %v", err)
	}
	account, err := ParseServiceAccount(raw)
	if err != nil {
		t.Fatalf("ParseServiceAccount() error = %v", err)
	}
	return account, key
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestParseServiceAccount(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "complete",
			raw:  `{"type": "service_account", "project_id": "p", "private_key": "k", "client_email": "e@p", "token_uri": "https://t"}`,
		},
		{
			name: "default token uri",
			raw:  `{"type": "service_account", "project_id": "p", "private_key": "k", "client_email": "e@p"}`,
		},
		{
			name:    "missing project",
			raw:     `{"type": "service_account", "private_key": "k", "client_email": "e@p"}`,
			wantErr: true,
		},
		{
			name:    "user credentials",
			raw:     `{"type": "authorized_user", "project_id": "p", "private_key": "k", "client_email": "e@p"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     `nope`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sa, err := ParseServiceAccount([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseServiceAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && sa.TokenURI == "" {
				t.Error("TokenURI should never be empty")
			}
		})
	}
}

func TestLoadServiceAccount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service-account.json")
	if err := os.WriteFile(path, []byte(`{"type": "service_account", "project_id": "p", "private_key": "k", "client_email": "e@p"}`), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	sa, err := LoadServiceAccount(path)
	if err != nil {
		t.Fatalf("LoadServiceAccount() error = %v", err)
	}
	if sa.ProjectID != "p" {
		t.Errorf("ProjectID = %q", sa.ProjectID)
	}

	if _, err := LoadServiceAccount(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTokenSource_Token(t *testing.T) {
	var key *rsa.PrivateKey
	var account *ServiceAccount

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.PostForm.Get("grant_type") != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}

		claims := &assertionClaims{}
		token, err := jwt.ParseWithClaims(r.PostForm.Get("assertion"), claims, func(tok *jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithAudience(account.TokenURI), jwt.WithIssuer(account.ClientEmail))
		if err != nil || !token.Valid {
			t.Errorf("assertion invalid: %v", err)
		}
		if claims.Scope != MessagingScope {
			t.Errorf("scope = %q", claims.Scope)
		}
		if token.Header["kid"] != "kid-1" {
			t.Errorf("kid = %v", token.Header["kid"])
		}

		_, _ = w.Write([]byte(`{"access_token": "ya29.token", "expires_in": 3599, "token_type": "Bearer"}`))
	}))
	defer srv.Close()

	account, key = testAccount(t, srv.URL)
	source, err := NewTokenSource(account, srv.Client())
	if err != nil {
		t.Fatalf("NewTokenSource() error = %v", err)
	}

	got, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got != "ya29.token" {
		t.Errorf("Token() = %q", got)
	}
}

func TestTokenSource_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant", "error_description": "Invalid JWT Signature."}`))
	}))
	defer srv.Close()

	account, _ := testAccount(t, srv.URL)
	source, err := NewTokenSource(account, srv.Client())
	if err != nil {
		t.Fatalf("NewTokenSource() error = %v", err)
	}

	_, err = source.Token(context.Background())
	if !adapters.IsGatewayError(err) || err.Error() != "Invalid JWT Signature." {
		t.Errorf("Token() error = %v", err)
	}
}

func TestTokenSource_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	account, _ := testAccount(t, srv.URL)
	srv.Close()

	source, err := NewTokenSource(account, nil)
	if err != nil {
		t.Fatalf("NewTokenSource() error = %v", err)
	}
	if _, err := source.Token(context.Background()); !errors.Is(err, adapters.ErrUnavailable) {
		t.Errorf("Token() error = %v, want unavailable", err)
	}
}

func TestTokenSource_RejectedWithoutDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	account, _ := testAccount(t, srv.URL)
	source, err := NewTokenSource(account, srv.Client())
	if err != nil {
		t.Fatalf("NewTokenSource() error = %v", err)
	}

	_, err = source.Token(context.Background())
	var gwErr *adapters.GatewayError
	if !errors.As(err, &gwErr) || gwErr.StatusCode != http.StatusBadGateway || gwErr.Error() != "upstream exploded" {
		t.Errorf("Token() error = %v", err)
	}
}

func TestNewTokenSource_BadKey(t *testing.T) {
	_, err := NewTokenSource(&ServiceAccount{PrivateKey: "not a key"}, nil)
	if err == nil {
		t.Error("expected error for malformed private key")
	}
}

type assertionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func TestSender_Send(t *testing.T) {
	message := `{"message":{"token":"device","notification":{"title":"Hi","body":"There"}}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/projects/demo-project/messages:send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer ya29.token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != message {
			t.Errorf("body not forwarded verbatim: %s", body)
		}
		_, _ = w.Write([]byte(`{"name": "projects/demo-project/messages/0:123"}`))
	}))
	defer srv.Close()

	sender := NewSender(srv.URL, "demo-project", staticTokens("ya29.token"), srv.Client(), testLogger())

	answer, err := sender.Send(context.Background(), json.RawMessage(message))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(answer) != `{"name": "projects/demo-project/messages/0:123"}` {
		t.Errorf("answer = %s", answer)
	}
}

func TestSender_SendRejected(t *testing.T) {
	body := `{"error": {"code": 400, "message": "The registration token is not a valid FCM registration token", "status": "INVALID_ARGUMENT"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	sender := NewSender(srv.URL, "demo-project", staticTokens("t"), srv.Client(), testLogger())

	_, err := sender.Send(context.Background(), json.RawMessage(`{}`))
	var gwErr *adapters.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("Send() error = %v, want gateway error", err)
	}
	if gwErr.StatusCode != http.StatusBadRequest || string(gwErr.Body) != body {
		t.Errorf("gateway error = %+v", gwErr)
	}
	if gwErr.Error() != "The registration token is not a valid FCM registration token" {
		t.Errorf("message = %q", gwErr.Error())
	}
}
