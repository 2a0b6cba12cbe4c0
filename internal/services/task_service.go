package services

import (
	"context"
	"fmt"
	"time"

	"tasks-edge-api/internal/models"
	"tasks-edge-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// taskService implements the TaskService interface
type taskService struct {
	repo        repositories.TaskRepository
	forwardAuth bool
	now         func() time.Time
	logger      *logrus.Logger
}

// TaskServiceOption customises a task service
type TaskServiceOption func(*taskService)

// WithClock sets the clock used to stamp created_at and updated_at
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskService) {
		s.now = now
	}
}

// WithForwardedAuthorization controls whether the caller's Authorization
// header is handed to stores that support it
func WithForwardedAuthorization(forward bool) TaskServiceOption {
	return func(s *taskService) {
		s.forwardAuth = forward
	}
}

// NewTaskService creates a new task service instance
func NewTaskService(repo repositories.TaskRepository, logger *logrus.Logger, opts ...TaskServiceOption) TaskService {
	if logger == nil {
		logger = logrus.New()
	}
	s := &taskService{
		repo:        repo,
		forwardAuth: true,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListTasks returns every task owned by the caller
func (s *taskService) ListTasks(ctx context.Context, caller Caller) ([]*models.Task, error) {
	tasks, err := s.store(caller).ListByOwner(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID
func (s *taskService) GetTask(ctx context.Context, caller Caller, id string) (*models.Task, error) {
	task, err := s.store(caller).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// CreateTask creates a new, not yet completed task owned by the caller.
// Only the title is taken from input.
func (s *taskService) CreateTask(ctx context.Context, caller Caller, input *models.TaskInput) (*models.Task, error) {
	task := models.NewTask(input, caller.Email)
	task.CreatedAt = s.now()

	if err := s.store(caller).Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"owner":   task.OwnerEmail,
	}).Debug("Task created")

	return task, nil
}

// UpdateTask changes the title and/or completion flag of a task
func (s *taskService) UpdateTask(ctx context.Context, caller Caller, id string, input *models.TaskInput) error {
	changes := models.NewTaskChanges(input, s.now())

	if err := s.store(caller).Update(ctx, id, changes); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask deletes a task by ID
func (s *taskService) DeleteTask(ctx context.Context, caller Caller, id string) error {
	if err := s.store(caller).DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *taskService) store(caller Caller) repositories.TaskRepository {
	if !s.forwardAuth {
		return s.repo
	}
	return repositories.ForCaller(s.repo, caller.Authorization)
}
