package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteOptions configures a SQLite connection
type SQLiteOptions struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	BusyTimeout  time.Duration
	WALMode      bool
}

// OpenSQLite opens a SQLite database, creating its directory when needed
func OpenSQLite(ctx context.Context, opts SQLiteOptions, logger *logrus.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = logrus.New()
	}

	dbPath := opts.Path
	if dbPath == "" {
		dbPath = "data/tasks.db"
	}

	memory := dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:")
	if !memory {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = absPath
	}

	dsn := buildSQLiteDSN(dbPath, opts)

	logger.WithFields(logrus.Fields{
		"driver": "sqlite",
		"path":   dbPath,
	}).Info("Creating SQLite connection")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA temp_store = MEMORY"); err != nil {
		logger.WithError(err).Warn("Failed to apply SQLite setting")
	}

	logger.WithField("path", dbPath).Info("SQLite connection established")
	return db, nil
}

func buildSQLiteDSN(path string, opts SQLiteOptions) string {
	var options []string

	if opts.WALMode {
		options = append(options, "_journal_mode=WAL")
	}
	if opts.BusyTimeout > 0 {
		options = append(options, fmt.Sprintf("_busy_timeout=%d", opts.BusyTimeout.Milliseconds()))
	}

	if len(options) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(options, "&")
}

// HealthChecker verifies a SQL database answers queries
type HealthChecker struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB, logger *logrus.Logger) *HealthChecker {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthChecker{db: db, logger: logger}
}

// CheckHealth pings the database and runs a trivial query
func (h *HealthChecker) CheckHealth(ctx context.Context) error {
	start := time.Now()
	defer func() {
		h.logger.WithField("duration", time.Since(start)).Debug("Health check completed")
	}()

	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	return nil
}
