package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"tasks-edge-api/pkg/lambda"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestExtractUnverifiedClaims(t *testing.T) {
	valid := signedToken(t, jwt.MapClaims{"email": "a@b.com", "role": "authenticated"})
	noEmail := signedToken(t, jwt.MapClaims{"sub": "u1"})
	empty := signedToken(t, jwt.MapClaims{})
	garbledPayload := "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"

	tests := []struct {
		name      string
		header    string
		wantEmail string
		wantErr   error
	}{
		{name: "valid bearer", header: "Bearer " + valid, wantEmail: "a@b.com"},
		{name: "any scheme", header: "Token " + valid, wantEmail: "a@b.com"},
		{name: "extra whitespace", header: "Bearer   " + valid, wantEmail: "a@b.com"},
		{name: "absent header", header: "", wantErr: ErrMissingCredential},
		{name: "scheme only", header: "Bearer", wantErr: ErrInvalidToken},
		{name: "blank header", header: "   ", wantErr: ErrInvalidToken},
		{name: "not a jwt", header: "Bearer abc", wantErr: ErrInvalidToken},
		{name: "garbled payload", header: "Bearer " + garbledPayload, wantErr: ErrInvalidToken},
		{name: "empty claim set", header: "Bearer " + empty, wantErr: ErrInvalidToken},
		{name: "no email claim", header: "Bearer " + noEmail, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ExtractUnverifiedClaims(tt.header)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.Email != tt.wantEmail {
				t.Errorf("Email = %q, want %q", claims.Email, tt.wantEmail)
			}
		})
	}
}

func TestExtractUnverifiedClaims_IgnoresSignature(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"email": "a@b.com"})
	tampered := token[:len(token)-4] + "AAAA"

	claims, err := ExtractUnverifiedClaims("Bearer " + tampered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestMissingAndInvalidAreDistinct(t *testing.T) {
	if errors.Is(ErrMissingCredential, ErrInvalidToken) || ErrMissingCredential.Error() == ErrInvalidToken.Error() {
		t.Error("missing credential and invalid token must be distinguishable")
	}
	if !isClaimError(ErrInvalidToken) || !isClaimError(fmt.Errorf("wrapped: %w", ErrMissingCredential)) || isClaimError(errors.New("other")) {
		t.Error("isClaimError() misclassified")
	}
}

func okHandler(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	return JSONResponse(http.StatusOK, map[string]string{"ok": "yes"}), nil
}

func TestCORS(t *testing.T) {
	h := lambda.Chain(okHandler, CORS())

	t.Run("preflight", func(t *testing.T) {
		called := false
		h := lambda.Chain(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
			called = true
			return okHandler(ctx, req)
		}, CORS())

		resp, err := h(context.Background(), &lambda.Request{Method: http.MethodOptions, Path: "/anything"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if called {
			t.Error("pre-flight must not reach the handler")
		}
		if resp.StatusCode != http.StatusOK || string(resp.Body) != "ok" {
			t.Errorf("pre-flight = %d %q", resp.StatusCode, resp.Body)
		}
		assertCORS(t, resp)
	})

	t.Run("regular response", func(t *testing.T) {
		resp, err := h(context.Background(), &lambda.Request{Method: http.MethodGet, Path: "/tasks"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertCORS(t, resp)
	})
}

func assertCORS(t *testing.T, resp *lambda.Response) {
	t.Helper()
	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "authorization, x-client-info, apikey",
		"Access-Control-Allow-Methods": "POST, GET, OPTIONS, PUT, DELETE",
	}
	for k, v := range want {
		if resp.Headers[k] != v {
			t.Errorf("%s = %q, want %q", k, resp.Headers[k], v)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "missing credential", err: ErrMissingCredential, wantStatus: 401, wantMsg: "JWT is required"},
		{name: "invalid token", err: ErrInvalidToken, wantStatus: 401, wantMsg: "Invalid token"},
		{name: "status error", err: &StatusError{Status: 404, Message: "Invalid URL"}, wantStatus: 404, wantMsg: "Invalid URL"},
		{name: "unexpected error", err: errors.New("boom: something broke"), wantStatus: 400, wantMsg: "boom: something broke"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := lambda.Chain(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
				return nil, tt.err
			}, CORS(), ErrorEnvelope(testLogger()))

			resp, err := h(context.Background(), &lambda.Request{Method: http.MethodGet, Path: "/tasks"})
			if err != nil {
				t.Fatalf("envelope must swallow the error, got %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body ErrorBody
			if err := json.Unmarshal(resp.Body, &body); err != nil {
				t.Fatalf("body is not JSON: %s", resp.Body)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMsg)
			}
			assertCORS(t, resp)
		})
	}
}

func TestErrorEnvelope_RecoversPanic(t *testing.T) {
	h := lambda.Chain(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		panic("nil map")
	}, ErrorEnvelope(testLogger()))

	resp, err := h(context.Background(), &lambda.Request{Method: http.MethodGet})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	var body ErrorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.Error != "nil map" {
		t.Errorf("body = %s, want the panic value verbatim", resp.Body)
	}
}

func TestErrorEnvelope_PanicWithError(t *testing.T) {
	h := lambda.Chain(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		panic(errors.New("index out of range"))
	}, CORS(), ErrorEnvelope(testLogger()))

	resp, err := h(context.Background(), &lambda.Request{Method: http.MethodPost, Path: "/tasks"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest || string(resp.Body) != `{"error":"index out of range"}` {
		t.Errorf("response = %d %s", resp.StatusCode, resp.Body)
	}
	assertCORS(t, resp)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := lambda.Chain(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		seen = RequestIDFromContext(ctx)
		return okHandler(ctx, req)
	}, RequestID())

	resp, _ := h(context.Background(), &lambda.Request{Headers: map[string]string{"x-request-id": "abc"}})
	if seen != "abc" || resp.Headers[RequestIDHeader] != "abc" {
		t.Errorf("request id = %q / %q, want abc", seen, resp.Headers[RequestIDHeader])
	}

	resp, _ = h(context.Background(), &lambda.Request{})
	if seen == "" || resp.Headers[RequestIDHeader] != seen {
		t.Errorf("generated request id not propagated: %q / %q", seen, resp.Headers[RequestIDHeader])
	}
}

func TestBodyLimit(t *testing.T) {
	h := lambda.Chain(okHandler, ErrorEnvelope(testLogger()), BodyLimit(4))

	resp, _ := h(context.Background(), &lambda.Request{Method: http.MethodPost, Body: []byte("12345")})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}

	resp, _ = h(context.Background(), &lambda.Request{Method: http.MethodPost, Body: []byte("1234")})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestResourceFromPath(t *testing.T) {
	tests := []struct {
		path         string
		wantResource string
		wantID       string
	}{
		{"/tasks/42", "tasks", "42"},
		{"/functions/v1/tasks", "tasks", ""},
		{"/auth/sign-in", "auth", "sign-in"},
		{"/health", "", ""},
	}

	for _, tt := range tests {
		resource, id := resourceFromPath(tt.path)
		if resource != tt.wantResource || id != tt.wantID {
			t.Errorf("resourceFromPath(%q) = %q, %q", tt.path, resource, id)
		}
	}
}

func TestLoggingAndAudit_PassThrough(t *testing.T) {
	wantErr := errors.New("store down")
	h := lambda.Chain(func(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
		return nil, wantErr
	}, Logging(testLogger()), AuditLogger(testLogger()))

	_, err := h(context.Background(), &lambda.Request{Method: http.MethodDelete, Path: "/tasks/1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want pass-through", err)
	}
}
