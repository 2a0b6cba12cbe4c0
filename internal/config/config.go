package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is built once at
// process start and passed by reference into handlers, services and stores.
type Config struct {
	Environment string `validate:"required,oneof=development test staging production"`
	Port        string `validate:"required"`
	Log         LogConfig
	Supabase    SupabaseConfig
	Store       StoreConfig
	FCM         FCMConfig
	Telegram    TelegramConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"required,oneof=trace debug info warn error fatal panic"`
	Format string `validate:"required,oneof=text json"`
}

// SupabaseConfig holds the hosted auth provider and REST store settings
type SupabaseConfig struct {
	URL     string `validate:"omitempty,url"`
	AnonKey string
}

// StoreConfig selects and configures the task store backend
type StoreConfig struct {
	Driver       string `validate:"required,oneof=postgrest postgres sqlite"`
	DSN          string
	Table        string `validate:"required"`
	MaxOpenConns int    `validate:"gte=0"`
	MaxIdleConns int    `validate:"gte=0"`
	// ForwardAuth sends the caller's Authorization header to the REST store
	ForwardAuth bool
}

// FCMConfig holds push gateway configuration
type FCMConfig struct {
	ServiceAccountFile string
	Endpoint           string `validate:"required,url"`
}

// TelegramConfig holds chat-bot file host configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIURL   string `validate:"required,url"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("STORE_DRIVER", "postgrest")
	v.SetDefault("STORE_TABLE", "tasks")
	v.SetDefault("STORE_DSN", "./data/tasks.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)
	v.SetDefault("STORE_FORWARD_AUTH", true)
	v.SetDefault("FCM_SERVICE_ACCOUNT_FILE", "service-account.json")
	v.SetDefault("FCM_ENDPOINT", "https://fcm.googleapis.com")
	v.SetDefault("TELEGRAM_API_URL", "https://api.telegram.org")

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Supabase: SupabaseConfig{
			// names kept from the edge function environment
			URL:     v.GetString("URL"),
			AnonKey: v.GetString("ANON_KEY"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(v.GetString("STORE_DRIVER")),
			DSN:          v.GetString("STORE_DSN"),
			Table:        v.GetString("STORE_TABLE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			ForwardAuth:  v.GetBool("STORE_FORWARD_AUTH"),
		},
		FCM: FCMConfig{
			ServiceAccountFile: v.GetString("FCM_SERVICE_ACCOUNT_FILE"),
			Endpoint:           strings.TrimRight(v.GetString("FCM_ENDPOINT"), "/"),
		},
		Telegram: TelegramConfig{
			BotToken: v.GetString("UPLOAD_TELEGRAM_BOT_TOKEN"),
			ChatID:   v.GetString("UPLOAD_TELEGRAM_CHAT_ID"),
			APIURL:   strings.TrimRight(v.GetString("TELEGRAM_API_URL"), "/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural errors
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Store.Driver == "postgrest" && c.Supabase.URL == "" {
		return fmt.Errorf("invalid configuration: URL is required for the postgrest store driver")
	}
	return nil
}

// IsProduction reports whether the application runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the process logger from the logging configuration
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
