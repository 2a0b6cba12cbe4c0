package services

import (
	"context"
	"encoding/json"

	"tasks-edge-api/internal/models"
)

// Caller identifies who a request acts for. Email comes from the caller's
// token claims; Authorization is the raw header, forwarded to stores that
// enforce their own access policies.
type Caller struct {
	Email         string
	Authorization string
}

// TaskService defines the task operations behind the tasks endpoint.
// Get, update and delete are not scoped to the caller; ownership of a single
// task is left to the store's access policies.
type TaskService interface {
	ListTasks(ctx context.Context, caller Caller) ([]*models.Task, error)
	GetTask(ctx context.Context, caller Caller, id string) (*models.Task, error)
	CreateTask(ctx context.Context, caller Caller, input *models.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, caller Caller, id string, input *models.TaskInput) error
	DeleteTask(ctx context.Context, caller Caller, id string) error
}

// AuthService signs callers in and up with the hosted auth provider
type AuthService interface {
	SignIn(ctx context.Context, req *CredentialsRequest) (*AuthResult, error)
	SignUp(ctx context.Context, req *CredentialsRequest) (*AuthResult, error)
}

// PushService relays a push message to the messaging gateway
type PushService interface {
	Send(ctx context.Context, message json.RawMessage) (json.RawMessage, error)
}

// FileRelayService relays an uploaded image to the file host
type FileRelayService interface {
	Relay(ctx context.Context, data []byte) (*RelayResult, error)
}

// CredentialsRequest is the body of sign-in and sign-up requests
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult carries the session access token. Token is omitted when the
// provider did not open a session, e.g. while sign-up awaits confirmation.
type AuthResult struct {
	Token string `json:"token,omitempty"`
}

// RelayResult is what the upload endpoint returns
type RelayResult struct {
	FileID   string   `json:"file_id"`
	ImageURL []string `json:"image_url"`
}
