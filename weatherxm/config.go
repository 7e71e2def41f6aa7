package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "https://pro.weatherxm.com/api/v1"

// ErrMissingAPIKey is returned when WEATHERXMPRO_API_KEY is not set.
var ErrMissingAPIKey = errors.New("WEATHERXMPRO_API_KEY environment variable is required")

// Config holds the server configuration read from the environment.
type Config struct {
	APIKey      string
	BaseURL     string
	HTTPTimeout time.Duration
	LogLevel    string

	Transport string // "stdio" or "http"
	HTTPAddr  string
	Token     string
	JWTSecret string
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration gets environment variable as a duration with default value
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// loadDotEnv loads variables from a .env file if one exists. Variables that
// are already set are left untouched.
func loadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		APIKey:    os.Getenv("WEATHERXMPRO_API_KEY"),
		BaseURL:   getEnv("WEATHERXMPRO_BASE_URL", defaultBaseURL),
		LogLevel:  getEnv("WEATHERXM_MCP_LOG_LEVEL", "info"),
		Transport: strings.ToLower(getEnv("WEATHERXM_MCP_TRANSPORT", "stdio")),
		HTTPAddr:  getEnv("WEATHERXM_MCP_HTTP_ADDR", ":8080"),
		Token:     os.Getenv("WEATHERXM_MCP_TOKEN"),
		JWTSecret: os.Getenv("WEATHERXM_MCP_JWT_SECRET"),
	}
	if cfg.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}

	timeout, err := getEnvDuration("WEATHERXMPRO_HTTP_TIMEOUT", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPTimeout = timeout

	switch cfg.Transport {
	case "stdio", "http":
	default:
		return Config{}, fmt.Errorf("unsupported transport %q (must be stdio or http)", cfg.Transport)
	}

	return cfg, nil
}
