package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tasks-edge-api/internal/models"
	"tasks-edge-api/internal/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const taskColumns = "id::text, title, is_completed, owner_email, created_at, updated_at"

// DBTX is the subset of pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaskRepository implements repositories.TaskRepository on PostgreSQL
type TaskRepository struct {
	db     DBTX
	pool   *pgxpool.Pool
	table  string
	logger *logrus.Logger
}

// NewTaskRepository creates a task repository backed by a pgx pool
func NewTaskRepository(pool *pgxpool.Pool, table string, logger *logrus.Logger) *TaskRepository {
	repo := newTaskRepository(pool, table, logger)
	repo.pool = pool
	return repo
}

func newTaskRepository(db DBTX, table string, logger *logrus.Logger) *TaskRepository {
	if table == "" {
		table = "tasks"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &TaskRepository{db: db, table: pgx.Identifier{table}.Sanitize(), logger: logger}
}

// Connect opens a pgx pool and verifies it
func Connect(ctx context.Context, dsn string, maxConns int) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, repositories.ConnectionError(err)
	}

	return pool, nil
}

// EnsureSchema creates the task table when it does not exist yet
func (r *TaskRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			owner_email TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ
		)`, r.table)

	_, err := r.exec(ctx, "ensure_schema", "", query)
	return err
}

// ListByOwner returns the owner's tasks in insertion order
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner_email = $1 ORDER BY id", taskColumns, r.table)

	start := time.Now()
	rows, err := r.db.Query(ctx, query, ownerEmail)
	r.logQuery("list_by_owner", time.Since(start), err)
	if err != nil {
		return nil, repositories.NewRepositoryError("list_by_owner", "task", "", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, repositories.NewRepositoryError("list_by_owner", "task", "", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, repositories.NewRepositoryError("list_by_owner", "task", "", err)
	}

	return tasks, nil
}

// parseID converts a path ID into the bigint key. An ID that is not an
// integer cannot name a row.
func parseID(id string) (int64, bool) {
	key, err := strconv.ParseInt(id, 10, 64)
	return key, err == nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, repositories.NotFoundError("get_by_id", "task", id)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", taskColumns, r.table)

	start := time.Now()
	task, err := scanTask(r.db.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		r.logQuery("get_by_id", time.Since(start), nil)
		return nil, repositories.NotFoundError("get_by_id", "task", id)
	}
	r.logQuery("get_by_id", time.Since(start), err)
	if err != nil {
		return nil, repositories.NewRepositoryError("get_by_id", "task", id, err)
	}

	return task, nil
}

// DeleteByID deletes a task by ID
func (r *TaskRepository) DeleteByID(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return repositories.NotFoundError("delete", "task", id)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)

	tag, err := r.exec(ctx, "delete", id, query, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.NotFoundError("delete", "task", id)
	}

	return nil
}

// Update applies changes to a task
func (r *TaskRepository) Update(ctx context.Context, id string, changes *models.TaskChanges) error {
	key, ok := parseID(id)
	if !ok {
		return repositories.NotFoundError("update", "task", id)
	}

	cols, args := changes.Columns()
	assignments := make([]string, len(cols))
	for i, col := range cols {
		assignments[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		r.table, strings.Join(assignments, ", "), len(args))

	tag, err := r.exec(ctx, "update", id, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.NotFoundError("update", "task", id)
	}

	return nil
}

// Create inserts a task and records the assigned ID on it
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return repositories.ValidationError("task", "", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (title, is_completed, owner_email)
		VALUES ($1, $2, $3)
		RETURNING id::text, created_at`, r.table)

	start := time.Now()
	err := r.db.QueryRow(ctx, query, task.Title, task.IsCompleted, task.OwnerEmail).Scan(&task.ID, &task.CreatedAt)
	r.logQuery("create", time.Since(start), err)
	if err != nil {
		return repositories.NewRepositoryError("create", "task", "", err)
	}

	return nil
}

// Ping checks the pool can reach the database
func (r *TaskRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	if err := r.pool.Ping(ctx); err != nil {
		return repositories.ConnectionError(err)
	}
	return nil
}

// Close releases the connection pool
func (r *TaskRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *TaskRepository) exec(ctx context.Context, op, id, query string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := r.db.Exec(ctx, query, args...)
	r.logQuery(op, time.Since(start), err)
	if err != nil {
		return tag, repositories.NewRepositoryError(op, "task", id, err)
	}
	return tag, nil
}

func (r *TaskRepository) logQuery(op string, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": op,
		"table":     r.table,
		"duration":  duration,
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			fields["pg_code"] = pgErr.Code
		}
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Query failed")
		return
	}
	r.logger.WithFields(fields).Debug("Query executed")
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	if err := row.Scan(&task.ID, &task.Title, &task.IsCompleted, &task.OwnerEmail, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	return &task, nil
}
