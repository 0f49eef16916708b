package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the stylequiz service.
// It is built once at startup and passed by pointer into constructors.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	JWTSecret     string
	CatalogFile   string
	CORSOrigins   string
	Webhooks      WebhookConfig
	Polling       PollingConfig
	ClientTimeout time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DATABASE", "stylequiz"),
		RedisAddr:     strings.TrimPrefix(getEnv("REDIS_URI", "localhost:6379"), "redis://"),
		JWTSecret:     getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		CatalogFile:   getEnv("CATALOG_FILE", ""),
		CORSOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		Webhooks:      LoadWebhooks(),
		Polling:       LoadPolling(),
		ClientTimeout: getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks required settings. Missing webhook endpoints are all
// reported together so an operator can fix them in one pass.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port: %q", c.Port)
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if missing := c.Webhooks.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEndpoint, strings.Join(missing, "; "))
	}
	if c.Polling.MaxAttempts < 1 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be positive, got %d", c.Polling.MaxAttempts)
	}
	if c.Polling.JobTimeout <= 0 {
		return fmt.Errorf("JOB_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
