package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tasks-edge-api/internal/models"
	"tasks-edge-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

const taskColumns = "id, title, is_completed, owner_email, created_at, updated_at"

// TaskRepository implements repositories.TaskRepository on SQLite
type TaskRepository struct {
	*BaseRepository[models.Task]
}

// NewTaskRepository creates a new SQLite task repository
func NewTaskRepository(db *sql.DB, table string, logger *logrus.Logger) *TaskRepository {
	if table == "" {
		table = "tasks"
	}
	return &TaskRepository{
		BaseRepository: NewBaseRepository[models.Task](db, table, "task", logger),
	}
}

// EnsureSchema creates the task table when it does not exist yet
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT '',
			is_completed BOOLEAN NOT NULL DEFAULT 0,
			owner_email TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME
		)`, r.table)

	if _, err := r.executeExec(ctx, "ensure_schema", query); err != nil {
		return err
	}

	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_owner_email ON %s(owner_email)", r.table, r.table)
	_, err := r.executeExec(ctx, "ensure_schema", index)
	return err
}

// ListByOwner returns the owner's tasks in insertion order
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner_email = ? ORDER BY id", taskColumns, r.table)

	rows, err := r.executeQuery(ctx, "list_by_owner", query, ownerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list_by_owner", r.entity, "", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list_by_owner", r.entity, "", err)
	}

	return tasks, nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	if err := r.validateID("get_by_id", id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", taskColumns, r.table)
	task, err := scanTask(r.executeQueryRow(ctx, "get_by_id", query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("get_by_id", r.entity, id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", r.entity, id, err)
	}

	return task, nil
}

// DeleteByID deletes a task by ID
func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	if err := r.validateID("delete", id); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)
	result, err := r.executeExec(ctx, "delete", query, id)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "delete", id)
}

// Update applies changes to a task
func (r *TaskRepository) Update(ctx context.Context, id string, changes *models.TaskChanges) error {
	if err := r.validateID("update", id); err != nil {
		return err
	}

	cols, args := changes.Columns()
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = col + " = ?"
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", r.table, strings.Join(assignments, ", "))
	result, err := r.executeExec(ctx, "update", query, args...)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "update", id)
}

// Create inserts a task and records the assigned ID on it
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return repositories.ValidationError(r.entity, "", err)
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf("INSERT INTO %s (title, is_completed, owner_email, created_at) VALUES (?, ?, ?, ?)", r.table)
	result, err := r.executeExec(ctx, "create", query, task.Title, task.IsCompleted, task.OwnerEmail, task.CreatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return repositories.NewRepositoryError("create", r.entity, "", err)
	}
	task.ID = strconv.FormatInt(id, 10)

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		id        int64
		task      models.Task
		updatedAt sql.NullTime
	)

	if err := row.Scan(&id, &task.Title, &task.IsCompleted, &task.OwnerEmail, &task.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}

	task.ID = strconv.FormatInt(id, 10)
	if updatedAt.Valid {
		t := updatedAt.Time
		task.UpdatedAt = &t
	}

	return &task, nil
}
