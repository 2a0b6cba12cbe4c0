// Package postgrest stores tasks in a hosted Supabase database through its
// PostgREST endpoint, so the project's row-level security policies apply.
package postgrest

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

	"tasks-edge-api/internal/models"
	"tasks-edge-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// Config configures the REST store
type Config struct {
	BaseURL string // project URL, e.g. https://xyz.supabase.co
	APIKey  string // anon key
	Table   string
}

// TaskRepository implements repositories.TaskRepository over PostgREST
type TaskRepository struct {
	cfg           Config
	client        *http.Client
	authorization string
	logger        *logrus.Logger
}

// row mirrors the hosted table, whose owner column is named "email"
type row struct {
	ID          rowID      `json:"id,omitempty"`
	Title       *string    `json:"title"`
	IsCompleted *bool      `json:"is_completed"`
	Email       string     `json:"email"`
	CreatedAt   *timestamp `json:"created_at,omitempty"`
	UpdatedAt   *timestamp `json:"updated_at,omitempty"`
}

// apiError is the error document PostgREST returns
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// NewTaskRepository creates a REST-backed task repository
func NewTaskRepository(cfg Config, client *http.Client, logger *logrus.Logger) *TaskRepository {
	if cfg.Table == "" {
		cfg.Table = "tasks"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TaskRepository{cfg: cfg, client: client, logger: logger}
}

// WithAuthorization returns a copy that sends the caller's Authorization
// header instead of the anon key, so policies see the caller's identity.
func (r *TaskRepository) WithAuthorization(header string) repositories.TaskRepository {
	clone := *r
	clone.authorization = header
	return &clone
}

// ListByOwner returns the owner's tasks in store order
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("email", "eq."+ownerEmail)

	var rows []row
	if err := r.do(ctx, "list_by_owner", "", http.MethodGet, q, nil, &rows); err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toTask())
	}
	return tasks, nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var rows []row
	if err := r.do(ctx, "get_by_id", id, http.MethodGet, byID(id, true), nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repositories.NotFoundError("get_by_id", "task", id)
	}
	return rows[0].toTask(), nil
}

// DeleteByID deletes a task by ID
func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	var rows []row
	if err := r.do(ctx, "delete", id, http.MethodDelete, byID(id, false), nil, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return repositories.NotFoundError("delete", "task", id)
	}
	return nil
}

// Update applies changes to a task
func (r *TaskRepository) Update(ctx context.Context, id string, changes *models.TaskChanges) error {
	var rows []row
	if err := r.do(ctx, "update", id, http.MethodPatch, byID(id, false), changes, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return repositories.NotFoundError("update", "task", id)
	}
	return nil
}

// Create inserts a task and records the assigned ID on it
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return repositories.ValidationError("task", "", err)
	}

	title := task.Title
	completed := task.IsCompleted
	payload := row{Title: &title, IsCompleted: &completed, Email: task.OwnerEmail}

	var rows []row
	if err := r.do(ctx, "create", "", http.MethodPost, nil, payload, &rows); err != nil {
		return err
	}
	if len(rows) > 0 {
		created := rows[0].toTask()
		task.ID = created.ID
		task.CreatedAt = created.CreatedAt
	}
	return nil
}

// Close is a no-op; the HTTP client is shared
func (r *TaskRepository) Close() error {
	return nil
}

func byID(id string, selectAll bool) url.Values {
	q := url.Values{}
	if selectAll {
		q.Set("select", "*")
	}
	q.Set("id", "eq."+id)
	return q
}

func (r *TaskRepository) do(ctx context.Context, op, id, method string, query url.Values, body interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", r.cfg.BaseURL, url.PathEscape(r.cfg.Table))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return repositories.NewRepositoryError(op, "task", id, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return repositories.NewRepositoryError(op, "task", id, err)
	}

	req.Header.Set("apikey", r.cfg.APIKey)
	req.Header.Set("Authorization", r.authHeader())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.log(op, method, 0, time.Since(start), err)
		return repositories.ConnectionError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		r.log(op, method, resp.StatusCode, time.Since(start), err)
		return repositories.NewRepositoryError(op, "task", id, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		storeErr := decodeError(op, id, resp.StatusCode, raw)
		r.log(op, method, resp.StatusCode, time.Since(start), storeErr)
		return storeErr
	}
	r.log(op, method, resp.StatusCode, time.Since(start), nil)

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return repositories.NewRepositoryError(op, "task", id, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (r *TaskRepository) authHeader() string {
	if r.authorization != "" {
		return r.authorization
	}
	return "Bearer " + r.cfg.APIKey
}

func (r *TaskRepository) log(op, method string, status int, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": op,
		"method":    method,
		"table":     r.cfg.Table,
		"status":    status,
		"duration":  duration,
	}
	if err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Warn("Store request failed")
		return
	}
	r.logger.WithFields(fields).Debug("Store request completed")
}

func decodeError(op, id string, status int, raw []byte) *repositories.RepositoryError {
	var apiErr apiError
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return repositories.NewRepositoryErrorWithMessage(op, "task", id, message,
		fmt.Errorf("%w: status %d", repositories.ErrRejected, status))
}

func (r row) toTask() *models.Task {
	task := &models.Task{
		ID:         string(r.ID),
		OwnerEmail: r.Email,
	}
	if r.Title != nil {
		task.Title = *r.Title
	}
	if r.IsCompleted != nil {
		task.IsCompleted = *r.IsCompleted
	}
	if r.CreatedAt != nil {
		task.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt != nil {
		updated := r.UpdatedAt.Time
		task.UpdatedAt = &updated
	}
	return task
}
