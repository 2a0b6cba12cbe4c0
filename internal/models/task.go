package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Task represents a to-do item owned by an authenticated identity
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	OwnerEmail  string     `json:"owner_email" db:"owner_email" validate:"required,email"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// TaskInput is the part of a request body the task endpoints read. Any other
// field a caller sends (id, owner_email, ...) is dropped during decoding.
type TaskInput struct {
	Title       *string `json:"title"`
	IsCompleted *bool   `json:"is_completed"`
}

// TaskChanges is the set of mutable columns applied by an update
type TaskChanges struct {
	Title       *string   `json:"title,omitempty"`
	IsCompleted *bool     `json:"is_completed,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask builds a task ready for insertion. The owner always comes from the
// caller's identity claim and a new task is never completed.
func NewTask(input *TaskInput, ownerEmail string) *Task {
	task := &Task{
		OwnerEmail:  ownerEmail,
		IsCompleted: false,
	}
	if input != nil && input.Title != nil {
		task.Title = *input.Title
	}
	return task
}

// NewTaskChanges builds the update set for input, stamped with now
func NewTaskChanges(input *TaskInput, now time.Time) *TaskChanges {
	changes := &TaskChanges{UpdatedAt: now}
	if input != nil {
		changes.Title = input.Title
		changes.IsCompleted = input.IsCompleted
	}
	return changes
}

// Validate validates the task before it is handed to a store
func (t *Task) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	return nil
}

// Columns returns the column/value pairs an update writes, in a stable order
func (c *TaskChanges) Columns() ([]string, []interface{}) {
	var cols []string
	var vals []interface{}

	if c.Title != nil {
		cols = append(cols, "title")
		vals = append(vals, *c.Title)
	}
	if c.IsCompleted != nil {
		cols = append(cols, "is_completed")
		vals = append(vals, *c.IsCompleted)
	}
	cols = append(cols, "updated_at")
	vals = append(vals, c.UpdatedAt)

	return cols, vals
}
