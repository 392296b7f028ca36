// Package config provides configuration management for the taskboard client.
// It handles loading and validation of configuration values from environment
// variables, with support for required variables, default values, and
// collective error reporting so a misconfigured environment fails with one
// message listing everything that is wrong.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// APIConfig holds settings for the backend REST API the client talks to.
type APIConfig struct {
	BaseURL string        // Base URL of the task backend, e.g. "https://api.example.com"
	Timeout time.Duration // Per-request timeout
}

// StorageConfig holds settings for durable client-local state.
type StorageConfig struct {
	StateDir string // Directory holding the token, cached user, and theme entries
}

// LogConfig holds logging-related configuration.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "console" or "json"
}

// SyncConfig holds settings for the background collection refresher.
type SyncConfig struct {
	Interval time.Duration // How often cached collections are re-fetched
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	API     *APIConfig
	Storage *StorageConfig
	Log     *LogConfig
	Sync    *SyncConfig
}

// getRequiredEnv reads a required environment variable, appending to the
// errors slice when it is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an optional environment variable with a default value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvDuration reads an optional environment variable parsed as a
// time.Duration ("15s", "1m30s"). Uses defaultValue if not set; appends an
// error if parsing fails.
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// defaultStateDir resolves the default location for client-local state.
func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".taskboard")
	}
	return ".taskboard"
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading and
// returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// API configuration
	apiBaseURL := getRequiredEnv("TASKBOARD_API_URL", &errors)
	apiBaseURL = strings.TrimRight(apiBaseURL, "/")
	apiTimeout := getOptionalEnvDuration("TASKBOARD_HTTP_TIMEOUT", 15*time.Second, &errors)

	apiConfig := &APIConfig{
		BaseURL: apiBaseURL,
		Timeout: apiTimeout,
	}

	// Storage configuration
	stateDir := getOptionalEnv("TASKBOARD_STATE_DIR", defaultStateDir())
	storageConfig := &StorageConfig{
		StateDir: stateDir,
	}

	// Logging configuration
	logConfig := &LogConfig{
		Level:  getOptionalEnv("TASKBOARD_LOG_LEVEL", "info"),
		Format: getOptionalEnv("TASKBOARD_LOG_FORMAT", "console"),
	}
	switch logConfig.Format {
	case "console", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid value for TASKBOARD_LOG_FORMAT: expected 'console' or 'json', got '%s'", logConfig.Format))
	}

	// Background sync configuration
	syncInterval := getOptionalEnvDuration("TASKBOARD_SYNC_INTERVAL", 30*time.Second, &errors)
	if syncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("sync interval %s is below the minimum of 1s", syncInterval))
		syncInterval = time.Second
	}
	syncConfig := &SyncConfig{
		Interval: syncInterval,
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		API:     apiConfig,
		Storage: storageConfig,
		Log:     logConfig,
		Sync:    syncConfig,
	}, nil
}
