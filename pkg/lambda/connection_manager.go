package lambda

import (
	"context"
	"sync"
	"time"

	"tasks-edge-api/internal/config"
	"tasks-edge-api/internal/services"
	"tasks-edge-api/pkg/server"

	"github.com/sirupsen/logrus"
)

// staleAfter is how long a container may sit idle before its store is
// probed again on the next invocation
const staleAfter = 5 * time.Minute

// ConnectionManager keeps the service container alive across warm Lambda
// invocations so store pools and HTTP clients are built once per cold start.
type ConnectionManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.RWMutex
	config    *config.Config
	newFn     func(*config.Config) (*server.Container, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(nil)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a connection manager. A nil cfg is loaded
// lazily from the environment on first use.
func NewConnectionManager(cfg *config.Config) *ConnectionManager {
	return &ConnectionManager{
		config: cfg,
		newFn:  server.NewContainer,
	}
}

// GetContainer returns the service container, initializing it if necessary.
// A container idle for longer than staleAfter whose store no longer answers
// is closed and rebuilt.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	cm.mu.RLock()
	container, lastUsed := cm.container, cm.lastUsed
	cm.mu.RUnlock()

	if container != nil {
		if cm.IsHealthy(ctx, container, lastUsed) {
			cm.UpdateLastUsed()
			return container, nil
		}
		container.Logger.Warn("Service container failed its health check, rebuilding")
		if err := cm.Cleanup(); err != nil {
			container.Logger.WithError(err).Warn("Failed to close stale service container")
		}
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// another invocation may have won the race
	if cm.container != nil {
		cm.lastUsed = time.Now()
		return cm.container, nil
	}

	if cm.config == nil {
		cfg, err := config.GetOptimizedConfig()
		if err != nil {
			return nil, err
		}
		cm.config = cfg
	}

	container, err := cm.newFn(cm.config)
	if err != nil {
		return nil, err
	}

	cm.container = container
	cm.lastUsed = time.Now()
	return container, nil
}

// Services returns the container's services and logger, initializing the
// container if necessary
func (cm *ConnectionManager) Services(ctx context.Context) (*services.ServiceContainer, *logrus.Logger, error) {
	container, err := cm.GetContainer(ctx)
	if err != nil {
		return nil, nil, err
	}
	return container.Services, container.Logger, nil
}

// IsHealthy reports whether container can keep serving. Recently used
// containers are trusted; idle ones must pass the store health check.
func (cm *ConnectionManager) IsHealthy(ctx context.Context, container *server.Container, lastUsed time.Time) bool {
	if container == nil {
		return false
	}
	if time.Since(lastUsed) < staleAfter {
		return true
	}
	return container.HealthCheck(ctx) == nil
}

// Cleanup closes the container and forces re-initialization on next use
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.container == nil {
		return nil
	}
	err := cm.container.Close()
	cm.container = nil
	return err
}

// UpdateLastUsed updates the last used timestamp
func (cm *ConnectionManager) UpdateLastUsed() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastUsed = time.Now()
}
