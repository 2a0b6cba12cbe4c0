// Package server wires configuration, stores, adapters and services into a
// single container shared by the gin server and the Lambda entry points.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tasks-edge-api/internal/adapters/fcm"
	"tasks-edge-api/internal/adapters/gotrue"
	"tasks-edge-api/internal/adapters/storage"
	"tasks-edge-api/internal/config"
	"tasks-edge-api/internal/database"
	"tasks-edge-api/internal/repositories"
	"tasks-edge-api/internal/services"

	"github.com/sirupsen/logrus"
)

// outboundTimeout bounds every call to a hosted service
const outboundTimeout = 15 * time.Second

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *logrus.Logger
	HTTPClient *http.Client
	TaskRepo   repositories.TaskRepository
	Services   *services.ServiceContainer

	healthCheck func(ctx context.Context) error
}

// NewContainer creates the dependency container described by cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, cfg.NewLogger())
}

// NewContainerWithLogger creates the dependency container with an explicit
// logger
func NewContainerWithLogger(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logrus.New()
	}

	client := &http.Client{Timeout: outboundTimeout}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := database.NewTaskRepository(ctx, cfg, client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task store: %w", err)
	}

	host, err := newFileHost(cfg, client, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	deps := &services.Dependencies{
		TaskRepo:     repo,
		AuthProvider: gotrue.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, client, logger),
		FileHost:     host,
	}
	// a nil interface, not a typed nil, keeps the push service's
	// not-configured check working
	if sender := newPushSender(cfg, client, logger); sender != nil {
		deps.PushSender = sender
	}

	sc, err := services.NewServiceContainer(deps, &services.ServiceConfig{
		ForwardAuthorization: cfg.Store.ForwardAuth,
	}, logger)
	if err != nil {
		host.Close()
		repo.Close()
		return nil, fmt.Errorf("failed to create service container: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"store":       cfg.Store.Driver,
		"push":        deps.PushSender != nil,
	}).Info("Container initialized")

	return &Container{
		Config:      cfg,
		Logger:      logger,
		HTTPClient:  client,
		TaskRepo:    repo,
		Services:    sc,
		healthCheck: database.HealthCheckFor(repo, logger),
	}, nil
}

// newPushSender builds the gateway client from the service account file. A
// missing or unreadable account disables push instead of failing start-up,
// since only the push function needs it.
func newPushSender(cfg *config.Config, client *http.Client, logger *logrus.Logger) *fcm.Sender {
	entry := logger.WithField("service_account_file", cfg.FCM.ServiceAccountFile)

	account, err := fcm.LoadServiceAccount(cfg.FCM.ServiceAccountFile)
	if err != nil {
		entry.WithError(err).Warn("Push gateway disabled")
		return nil
	}

	tokens, err := fcm.NewTokenSource(account, client, fcm.MessagingScope)
	if err != nil {
		entry.WithError(err).Warn("Push gateway disabled")
		return nil
	}

	return fcm.NewSender(cfg.FCM.Endpoint, account.ProjectID, tokens, client, logger)
}

// newFileHost builds the file host. Production always talks to the bot API
// so a missing token fails fast; elsewhere an unset token selects the
// in-memory host.
func newFileHost(cfg *config.Config, client *http.Client, logger *logrus.Logger) (storage.FileHost, error) {
	hostType := storage.HostTypeFor(cfg.Telegram.BotToken)
	if cfg.IsProduction() {
		hostType = string(storage.HostTypeTelegram)
	}

	hostCfg := &storage.HostConfig{
		Type:     hostType,
		APIURL:   cfg.Telegram.APIURL,
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	}
	if hostType == string(storage.HostTypeMock) {
		hostCfg.APIURL = ""
		logger.Warn("UPLOAD_TELEGRAM_BOT_TOKEN is not set, uploads are kept in memory")
	}

	host, err := storage.NewFactory(client, logger).Create(hostCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create file host: %w", err)
	}
	return host, nil
}

// HealthCheck probes the task store
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.healthCheck == nil {
		return nil
	}
	return c.healthCheck(ctx)
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.Services != nil {
		if err := c.Services.Close(); err != nil {
			return fmt.Errorf("failed to close services: %w", err)
		}
	}

	if c.TaskRepo != nil {
		if err := c.TaskRepo.Close(); err != nil {
			return fmt.Errorf("failed to close task store: %w", err)
		}
	}

	return nil
}
