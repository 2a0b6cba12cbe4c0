package services

import (
	"fmt"

	"tasks-edge-api/internal/adapters/storage"
	"tasks-edge-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// ServiceContainer holds all service instances
type ServiceContainer struct {
	TaskService      TaskService
	AuthService      AuthService
	PushService      PushService
	FileRelayService FileRelayService

	host storage.FileHost
}

// Dependencies are the adapters the services are built on. PushSender may
// be nil when the gateway is not configured.
type Dependencies struct {
	TaskRepo     repositories.TaskRepository
	AuthProvider AuthProvider
	PushSender   MessageSender
	FileHost     storage.FileHost
}

// ServiceConfig holds configuration for services
type ServiceConfig struct {
	ForwardAuthorization bool
	TaskOptions          []TaskServiceOption
}

// NewServiceContainer creates a new service container with all services
func NewServiceContainer(deps *Dependencies, config *ServiceConfig, logger *logrus.Logger) (*ServiceContainer, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies cannot be nil")
	}
	if deps.TaskRepo == nil {
		return nil, fmt.Errorf("task repository cannot be nil")
	}
	if deps.AuthProvider == nil {
		return nil, fmt.Errorf("auth provider cannot be nil")
	}
	if deps.FileHost == nil {
		return nil, fmt.Errorf("file host cannot be nil")
	}
	if config == nil {
		config = &ServiceConfig{ForwardAuthorization: true}
	}
	if logger == nil {
		logger = logrus.New()
	}

	taskOpts := append([]TaskServiceOption{WithForwardedAuthorization(config.ForwardAuthorization)}, config.TaskOptions...)

	return &ServiceContainer{
		TaskService:      NewTaskService(deps.TaskRepo, logger, taskOpts...),
		AuthService:      NewAuthService(deps.AuthProvider, logger),
		PushService:      NewPushService(deps.PushSender, logger),
		FileRelayService: NewFileRelayService(deps.FileHost, logger),
		host:             deps.FileHost,
	}, nil
}

// Validate validates that all services are properly initialized
func (sc *ServiceContainer) Validate() error {
	if sc.TaskService == nil {
		return fmt.Errorf("task service is nil")
	}
	if sc.AuthService == nil {
		return fmt.Errorf("auth service is nil")
	}
	if sc.PushService == nil {
		return fmt.Errorf("push service is nil")
	}
	if sc.FileRelayService == nil {
		return fmt.Errorf("file relay service is nil")
	}
	return nil
}

// Close releases the file host. The task store is owned and closed by
// whoever created it.
func (sc *ServiceContainer) Close() error {
	if sc.host != nil {
		return sc.host.Close()
	}
	return nil
}
