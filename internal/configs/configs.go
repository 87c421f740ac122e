/*
Package configs is responsible for loading and parsing the application's configuration settings.

It reads operating system environment variables (optionally seeded from a .env file by the
caller): the running environment, port, CORS allowed origins, identity secret, the optional
PostgreSQL and Redis connections, and the chat history and rate limit tuning.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Database Settings. Empty disables the HTTP chat persistence endpoints.
	DatabaseDSN string

	// Cache Settings. Empty keeps recent chat history in process memory.
	RedisURL string

	// Chat History Settings
	HistoryWorkers   int
	HistoryQueueSize int

	// Real-time Chat Limits: messages per second and burst, per session.
	ChatRate  float64
	ChatBurst int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1024 || port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", port, 1024, 65535)
	}
	cfg.Port = port

	// --- Security Settings ---
	cfg.AllowedOrigins = []string{}
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
		jwtSecret = "your_default_insecure_secret_key_change_me"
	}
	cfg.JWTSecret = jwtSecret

	// --- Storage Settings ---
	cfg.DatabaseDSN = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))

	// --- Chat Settings ---
	if cfg.HistoryWorkers, err = intEnv("HISTORY_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.HistoryWorkers < 1 {
		return nil, fmt.Errorf("HISTORY_WORKERS must be at least 1, got %d", cfg.HistoryWorkers)
	}

	if cfg.HistoryQueueSize, err = intEnv("HISTORY_QUEUE_SIZE", 1024); err != nil {
		return nil, err
	}
	if cfg.HistoryQueueSize < 1 {
		return nil, fmt.Errorf("HISTORY_QUEUE_SIZE must be at least 1, got %d", cfg.HistoryQueueSize)
	}

	if cfg.ChatRate, err = floatEnv("CHAT_RATE", 2); err != nil {
		return nil, err
	}
	if cfg.ChatRate <= 0 {
		return nil, fmt.Errorf("CHAT_RATE must be positive, got %g", cfg.ChatRate)
	}

	if cfg.ChatBurst, err = intEnv("CHAT_BURST", 5); err != nil {
		return nil, err
	}
	if cfg.ChatBurst < 1 {
		return nil, fmt.Errorf("CHAT_BURST must be at least 1, got %d", cfg.ChatBurst)
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
