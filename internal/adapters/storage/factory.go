package storage

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// HostType represents the type of file host implementation
type HostType string

const (
	HostTypeTelegram HostType = "telegram"
	HostTypeMock     HostType = "mock"
)

// Factory creates FileHost instances based on configuration
type Factory struct {
	client *http.Client
	logger *logrus.Logger
}

// NewFactory creates a new file host factory
func NewFactory(client *http.Client, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{client: client, logger: logger}
}

// Create creates a FileHost instance based on the provided configuration
func (f *Factory) Create(config *HostConfig) (FileHost, error) {
	if config == nil {
		return nil, fmt.Errorf("file host config is required")
	}

	switch HostType(strings.ToLower(config.Type)) {
	case HostTypeTelegram:
		host, err := NewTelegramFileHost(config.APIURL, config.BotToken, config.ChatID, f.client, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram file host: %w", err)
		}
		return host, nil
	case HostTypeMock:
		return NewMockFileHost(config.APIURL), nil
	default:
		return nil, fmt.Errorf("unsupported file host type: %s", config.Type)
	}
}

// HostTypeFor picks the telegram host when a bot token is configured and
// falls back to the in-memory host otherwise.
func HostTypeFor(botToken string) string {
	if botToken == "" {
		return string(HostTypeMock)
	}
	return string(HostTypeTelegram)
}
