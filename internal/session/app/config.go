package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AccessSecret  string // Required: HMAC secret for access tokens
	RefreshSecret string // Required: HMAC secret for refresh tokens

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./sessiond.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		AccessSecret:        os.Getenv("SESSION_ACCESS_SECRET"),
		RefreshSecret:       os.Getenv("SESSION_REFRESH_SECRET"),
		DatabaseFile:        getEnvOrDefault("SESSION_DATABASE_FILE", "sessiond.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate rejects configurations the service cannot safely run with. The
// two secrets must be set and must differ, otherwise a refresh token would
// verify as an access token.
func (c Config) Validate() error {
	if c.AccessSecret == "" {
		return errors.New("SESSION_ACCESS_SECRET is required")
	}
	if c.RefreshSecret == "" {
		return errors.New("SESSION_REFRESH_SECRET is required")
	}
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("SESSION_ACCESS_SECRET and SESSION_REFRESH_SECRET must differ")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
