package repositories

import (
	"context"

	"tasks-edge-api/internal/models"
)

// TaskRepository is the store adapter behind the task endpoints. Every call
// is attempted exactly once; implementations do not retry.
//
// Lookups by ID are not scoped to an owner. Hosted stores enforce ownership
// through their own row-level security policies.
type TaskRepository interface {
	// ListByOwner returns every task owned by ownerEmail in store order
	ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Task, error)

	// GetByID retrieves a task by its ID
	GetByID(ctx context.Context, id string) (*models.Task, error)

	// DeleteByID deletes a task by its ID
	DeleteByID(ctx context.Context, id string) error

	// Update applies changes to the task with the given ID
	Update(ctx context.Context, id string, changes *models.TaskChanges) error

	// Create inserts a task; the store assigns task.ID
	Create(ctx context.Context, task *models.Task) error

	// Close releases any resources held by the store
	Close() error
}

// CallerScoped is implemented by stores that act with the caller's own
// credential (for example a REST store honouring row-level security).
type CallerScoped interface {
	WithAuthorization(header string) TaskRepository
}

// ForCaller returns repo bound to the caller's Authorization header when the
// store supports it, and repo itself otherwise.
func ForCaller(repo TaskRepository, authorization string) TaskRepository {
	if scoped, ok := repo.(CallerScoped); ok && authorization != "" {
		return scoped.WithAuthorization(authorization)
	}
	return repo
}
