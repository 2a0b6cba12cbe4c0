package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"tasks-edge-api/internal/adapters/gotrue"
	"tasks-edge-api/internal/adapters/storage"
	"tasks-edge-api/internal/models"
	"tasks-edge-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

// fakeTaskRepo is an in-memory TaskRepository that records the
// authorization it was scoped with
type fakeTaskRepo struct {
	tasks       []*models.Task
	nextID      int
	scopedWith  *string
	lastChanges *models.TaskChanges
	failWith    error
}

func (f *fakeTaskRepo) WithAuthorization(header string) repositories.TaskRepository {
	f.scopedWith = &header
	return f
}

func (f *fakeTaskRepo) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]*models.Task, 0)
	for _, t := range f.tasks {
		if t.OwnerEmail == ownerEmail {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, repositories.NotFoundError("get_by_id", "task", id)
}

func (f *fakeTaskRepo) DeleteByID(ctx context.Context, id string) error {
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return repositories.NotFoundError("delete", "task", id)
}

func (f *fakeTaskRepo) Update(ctx context.Context, id string, changes *models.TaskChanges) error {
	f.lastChanges = changes
	for _, t := range f.tasks {
		if t.ID == id {
			if changes.Title != nil {
				t.Title = *changes.Title
			}
			if changes.IsCompleted != nil {
				t.IsCompleted = *changes.IsCompleted
			}
			updated := changes.UpdatedAt
			t.UpdatedAt = &updated
			return nil
		}
	}
	return repositories.NotFoundError("update", "task", id)
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	task.ID = strconv.Itoa(f.nextID)
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeTaskRepo) Close() error { return nil }

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestTaskService(repo *fakeTaskRepo, opts ...TaskServiceOption) TaskService {
	opts = append([]TaskServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewTaskService(repo, testLogger(), opts...)
}

func TestTaskService_CreateTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestTaskService(repo)
	caller := Caller{Email: "a@b.com", Authorization: "Bearer tok"}

	task, err := svc.CreateTask(context.Background(), caller, &models.TaskInput{
		Title:       stringPtr("Buy milk"),
		IsCompleted: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if task.IsCompleted {
		t.Error("new tasks are never completed")
	}
	if task.OwnerEmail != "a@b.com" || task.Title != "Buy milk" {
		t.Errorf("task = %+v", task)
	}
	if !task.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v, want %v", task.CreatedAt, fixedNow)
	}
	if repo.scopedWith == nil || *repo.scopedWith != "Bearer tok" {
		t.Error("caller authorization was not forwarded to the store")
	}
}

func TestTaskService_CreateTaskDefaultTitle(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestTaskService(repo)

	task, err := svc.CreateTask(context.Background(), Caller{Email: "a@b.com"}, &models.TaskInput{})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if task.Title != "" {
		t.Errorf("Title = %q, want empty", task.Title)
	}
}

func TestTaskService_ListTasksScopedToCaller(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestTaskService(repo)
	ctx := context.Background()

	for _, email := range []string{"a@b.com", "other@b.com", "a@b.com"} {
		if _, err := svc.CreateTask(ctx, Caller{Email: email}, nil); err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
	}

	tasks, err := svc.ListTasks(ctx, Caller{Email: "a@b.com"})
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	for _, task := range tasks {
		if task.OwnerEmail != "a@b.com" {
			t.Errorf("foreign task listed: %+v", task)
		}
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestTaskService(repo)
	ctx := context.Background()
	caller := Caller{Email: "a@b.com"}

	task, _ := svc.CreateTask(ctx, caller, &models.TaskInput{Title: stringPtr("Buy milk")})

	if err := svc.UpdateTask(ctx, caller, task.ID, &models.TaskInput{IsCompleted: boolPtr(true)}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	if repo.lastChanges.Title != nil {
		t.Error("absent title must not be written")
	}
	if !repo.lastChanges.UpdatedAt.Equal(fixedNow) {
		t.Errorf("UpdatedAt = %v", repo.lastChanges.UpdatedAt)
	}

	got, _ := svc.GetTask(ctx, caller, task.ID)
	if got.Title != "Buy milk" || !got.IsCompleted {
		t.Errorf("task after update = %+v", got)
	}
}

func TestTaskService_NotFound(t *testing.T) {
	svc := newTestTaskService(&fakeTaskRepo{})
	ctx := context.Background()
	caller := Caller{Email: "a@b.com"}

	if _, err := svc.GetTask(ctx, caller, "42"); !repositories.IsNotFound(err) {
		t.Errorf("GetTask() error = %v, want not found", err)
	}
	if err := svc.UpdateTask(ctx, caller, "42", &models.TaskInput{}); !repositories.IsNotFound(err) {
		t.Errorf("UpdateTask() error = %v, want not found", err)
	}
	if err := svc.DeleteTask(ctx, caller, "42"); !repositories.IsNotFound(err) {
		t.Errorf("DeleteTask() error = %v, want not found", err)
	}
}

func TestTaskService_StoreErrorKeepsRepositoryError(t *testing.T) {
	storeErr := repositories.NewRepositoryErrorWithMessage("list_by_owner", "task", "", "permission denied for table tasks", repositories.ErrRejected)
	svc := newTestTaskService(&fakeTaskRepo{failWith: storeErr})

	_, err := svc.ListTasks(context.Background(), Caller{Email: "a@b.com"})

	var repoErr *repositories.RepositoryError
	if !errors.As(err, &repoErr) {
		t.Fatalf("ListTasks() error = %v, want repository error in chain", err)
	}
	if repoErr.Error() != "permission denied for table tasks" {
		t.Errorf("message = %q", repoErr.Error())
	}
}

func TestTaskService_WithoutForwarding(t *testing.T) {
	repo := &fakeTaskRepo{}
	svc := newTestTaskService(repo, WithForwardedAuthorization(false))

	if _, err := svc.ListTasks(context.Background(), Caller{Email: "a@b.com", Authorization: "Bearer tok"}); err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if repo.scopedWith != nil {
		t.Error("authorization forwarded although disabled")
	}
}

type fakeAuthProvider struct {
	session *gotrue.Session
	err     error
	got     gotrue.Credentials
}

func (f *fakeAuthProvider) SignIn(ctx context.Context, creds gotrue.Credentials) (*gotrue.Session, error) {
	f.got = creds
	return f.session, f.err
}

func (f *fakeAuthProvider) SignUp(ctx context.Context, creds gotrue.Credentials) (*gotrue.Session, error) {
	f.got = creds
	return f.session, f.err
}

func TestAuthService(t *testing.T) {
	tests := []struct {
		name      string
		req       *CredentialsRequest
		provider  *fakeAuthProvider
		wantToken string
		wantErr   string
	}{
		{
			name:      "token returned",
			req:       &CredentialsRequest{Email: "a@b.com", Password: "secret"},
			provider:  &fakeAuthProvider{session: &gotrue.Session{AccessToken: "tok"}},
			wantToken: "tok",
		},
		{
			name:     "provider refusal passed through",
			req:      &CredentialsRequest{Email: "a@b.com", Password: "nope"},
			provider: &fakeAuthProvider{err: errors.New("Invalid login credentials")},
			wantErr:  "Invalid login credentials",
		},
		{
			name:     "missing password",
			req:      &CredentialsRequest{Email: "a@b.com"},
			provider: &fakeAuthProvider{},
			wantErr:  "password is required",
		},
		{
			name:     "malformed email",
			req:      &CredentialsRequest{Email: "nope", Password: "secret"},
			provider: &fakeAuthProvider{},
			wantErr:  "email must be a valid email address",
		},
		{
			name:     "nil request",
			provider: &fakeAuthProvider{},
			wantErr:  "credentials are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.provider, testLogger())

			for _, call := range []func(context.Context, *CredentialsRequest) (*AuthResult, error){svc.SignIn, svc.SignUp} {
				result, err := call(context.Background(), tt.req)
				if tt.wantErr != "" {
					if err == nil || err.Error() != tt.wantErr {
						t.Errorf("error = %v, want %q", err, tt.wantErr)
					}
					continue
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result.Token != tt.wantToken {
					t.Errorf("Token = %q, want %q", result.Token, tt.wantToken)
				}
			}
		})
	}
}

type fakeSender struct {
	got    json.RawMessage
	answer json.RawMessage
	err    error
}

func (f *fakeSender) Send(ctx context.Context, message json.RawMessage) (json.RawMessage, error) {
	f.got = message
	return f.answer, f.err
}

func TestPushService(t *testing.T) {
	sender := &fakeSender{answer: json.RawMessage(`{"name":"projects/p/messages/1"}`)}
	svc := NewPushService(sender, testLogger())

	msg := json.RawMessage(`{"message":{"topic":"news"}}`)
	answer, err := svc.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if string(sender.got) != string(msg) {
		t.Errorf("message not forwarded verbatim: %s", sender.got)
	}
	if string(answer) != `{"name":"projects/p/messages/1"}` {
		t.Errorf("answer = %s", answer)
	}

	if _, err := svc.Send(context.Background(), json.RawMessage(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestPushService_NotConfigured(t *testing.T) {
	svc := NewPushService(nil, testLogger())

	if _, err := svc.Send(context.Background(), json.RawMessage(`{}`)); !errors.Is(err, ErrPushNotConfigured) {
		t.Errorf("Send() error = %v, want ErrPushNotConfigured", err)
	}
}

// multiRenditionHost wraps the mock host and reports several renditions
// per upload
type multiRenditionHost struct {
	*storage.MockFileHost
	failID string
}

func (h *multiRenditionHost) Upload(ctx context.Context, data []byte, opts *storage.UploadOptions) (*storage.UploadedFile, error) {
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		up, err := h.MockFileHost.Upload(ctx, data, opts)
		if err != nil {
			return nil, err
		}
		ids = append(ids, up.PrimaryID())
	}
	if h.failID != "" {
		ids = append(ids, h.failID)
	}
	return &storage.UploadedFile{FileIDs: ids}, nil
}

func TestFileRelayService_Relay(t *testing.T) {
	host := &multiRenditionHost{MockFileHost: storage.NewMockFileHost("https://files.test")}
	svc := NewFileRelayService(host, testLogger())

	result, err := svc.Relay(context.Background(), []byte("image"))
	if err != nil {
		t.Fatalf("Relay() error = %v", err)
	}

	if len(result.ImageURL) != 3 {
		t.Fatalf("got %d links, want one per rendition", len(result.ImageURL))
	}
	if result.ImageURL[0] != "https://files.test/"+result.FileID {
		t.Errorf("first link %q does not belong to file_id %q", result.ImageURL[0], result.FileID)
	}
	for _, link := range result.ImageURL {
		if !strings.HasPrefix(link, "https://files.test/") {
			t.Errorf("link = %q", link)
		}
	}
}

func TestFileRelayService_ResolveFailure(t *testing.T) {
	host := &multiRenditionHost{MockFileHost: storage.NewMockFileHost(""), failID: "missing"}
	svc := NewFileRelayService(host, testLogger())

	if _, err := svc.Relay(context.Background(), []byte("image")); !storage.IsNotFound(err) {
		t.Errorf("Relay() error = %v, want not found", err)
	}
}

func TestFileRelayService_EmptyUpload(t *testing.T) {
	svc := NewFileRelayService(storage.NewMockFileHost(""), testLogger())

	if _, err := svc.Relay(context.Background(), nil); err == nil {
		t.Error("expected error for empty upload")
	}
}

func TestNewServiceContainer(t *testing.T) {
	deps := &Dependencies{
		TaskRepo:     &fakeTaskRepo{},
		AuthProvider: &fakeAuthProvider{},
		FileHost:     storage.NewMockFileHost(""),
	}

	sc, err := NewServiceContainer(deps, nil, testLogger())
	if err != nil {
		t.Fatalf("NewServiceContainer() error = %v", err)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := sc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := NewServiceContainer(&Dependencies{}, nil, testLogger()); err == nil {
		t.Error("expected error for missing dependencies")
	}
	if _, err := NewServiceContainer(nil, nil, testLogger()); err == nil {
		t.Error("expected error for nil dependencies")
	}
}
