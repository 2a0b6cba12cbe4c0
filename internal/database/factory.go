// Package database builds the task store selected by configuration.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"tasks-edge-api/internal/config"
	"tasks-edge-api/internal/repositories"
	"tasks-edge-api/internal/repositories/postgres"
	"tasks-edge-api/internal/repositories/postgrest"
	"tasks-edge-api/internal/repositories/sqlite"

	"github.com/sirupsen/logrus"
)

// NewTaskRepository creates the task store named by cfg.Store.Driver.
// SQL-backed stores get their table created when missing.
func NewTaskRepository(ctx context.Context, cfg *config.Config, client *http.Client, logger *logrus.Logger) (repositories.TaskRepository, error) {
	if logger == nil {
		logger = logrus.New()
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.Store.Driver,
		"table":  cfg.Store.Table,
	}).Info("Creating task store")

	switch cfg.Store.Driver {
	case "postgrest":
		return postgrest.NewTaskRepository(postgrest.Config{
			BaseURL: cfg.Supabase.URL,
			APIKey:  cfg.Supabase.AnonKey,
			Table:   cfg.Store.Table,
		}, client, logger), nil

	case "postgres":
		pool, err := postgres.Connect(ctx, cfg.Store.DSN, cfg.Store.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		repo := postgres.NewTaskRepository(pool, cfg.Store.Table, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to prepare task table: %w", err)
		}
		return repo, nil

	case "sqlite":
		db, err := OpenSQLite(ctx, SQLiteOptions{
			Path:         cfg.Store.DSN,
			MaxOpenConns: cfg.Store.MaxOpenConns,
			MaxIdleConns: cfg.Store.MaxIdleConns,
			BusyTimeout:  5 * time.Second,
			WALMode:      true,
		}, logger)
		if err != nil {
			return nil, err
		}
		repo := sqlite.NewTaskRepository(db, cfg.Store.Table, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to prepare task table: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// HealthCheckFor returns a health probe for repo. Stores without a
// connection to probe (the REST store) are always reported healthy.
func HealthCheckFor(repo repositories.TaskRepository, logger *logrus.Logger) func(ctx context.Context) error {
	switch r := repo.(type) {
	case interface{ DB() *sql.DB }:
		return NewHealthChecker(r.DB(), logger).CheckHealth
	case interface{ Ping(context.Context) error }:
		return r.Ping
	default:
		return func(context.Context) error { return nil }
	}
}
