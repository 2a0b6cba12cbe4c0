package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tasks-edge-api/internal/adapters/gotrue"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// AuthProvider is the subset of the auth provider client the service uses
type AuthProvider interface {
	SignIn(ctx context.Context, creds gotrue.Credentials) (*gotrue.Session, error)
	SignUp(ctx context.Context, creds gotrue.Credentials) (*gotrue.Session, error)
}

// authService implements the AuthService interface
type authService struct {
	provider  AuthProvider
	validator *validator.Validate
	logger    *logrus.Logger
}

// NewAuthService creates a new auth service instance
func NewAuthService(provider AuthProvider, logger *logrus.Logger) AuthService {
	if logger == nil {
		logger = logrus.New()
	}
	return &authService{
		provider:  provider,
		validator: validator.New(),
		logger:    logger,
	}
}

// SignIn exchanges email and password for an access token
func (s *authService) SignIn(ctx context.Context, req *CredentialsRequest) (*AuthResult, error) {
	creds, err := s.credentials(req)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.SignIn(ctx, creds)
	if err != nil {
		s.logger.WithError(err).WithField("email", creds.Email).Info("Sign-in refused")
		return nil, err
	}

	return &AuthResult{Token: session.AccessToken}, nil
}

// SignUp registers a new user and returns its access token when the provider
// opens a session right away
func (s *authService) SignUp(ctx context.Context, req *CredentialsRequest) (*AuthResult, error) {
	creds, err := s.credentials(req)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.SignUp(ctx, creds)
	if err != nil {
		s.logger.WithError(err).WithField("email", creds.Email).Info("Sign-up refused")
		return nil, err
	}

	return &AuthResult{Token: session.AccessToken}, nil
}

func (s *authService) credentials(req *CredentialsRequest) (gotrue.Credentials, error) {
	if req == nil {
		return gotrue.Credentials{}, fmt.Errorf("credentials are required")
	}
	if err := s.validator.Struct(req); err != nil {
		return gotrue.Credentials{}, validationMessage(err)
	}
	return gotrue.Credentials{Email: req.Email, Password: req.Password}, nil
}

// validationMessage turns validator output into a short caller-facing error
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
