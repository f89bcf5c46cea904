package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	LogLevel    string
	Version     string

	// Component configurations
	HTTP    HTTPConfig
	Metrics MetricsConfig
	Storage StorageConfig
	Handler HandlerConfig
	Health  HealthConfig
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	// Addr is the bind address for the API server
	Addr string
	// AllowedOrigins are the origins permitted by the CORS layer
	AllowedOrigins []string
	// ReadTimeout bounds how long reading a request may take
	ReadTimeout time.Duration
	// WriteTimeout bounds how long writing a response may take
	WriteTimeout time.Duration
}

// MetricsConfig holds the metric exposition configuration
type MetricsConfig struct {
	// Addr is the bind address for the metrics scrape endpoint
	Addr string
	// Enabled toggles the metrics listener
	Enabled bool
}

// StorageConfig holds upload storage configuration
type StorageConfig struct {
	// Provider selects the storage backend: "fs" or "s3"
	Provider string
	// UploadDir is the base directory for the fs backend
	UploadDir string
	// MaxUploadSize bounds a single uploaded file in bytes
	MaxUploadSize int64
	// S3 configures the s3 backend
	S3 S3Config
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the S3 endpoint, e.g. for LocalStack
	Endpoint string
}

// HandlerConfig holds request handler configuration
type HandlerConfig struct {
	Timeout        time.Duration
	MaxRequestSize int64
	EnableHealth   bool
	// Platform is "http" or "lambda"; auto-detected if empty
	Platform string
}

// HealthConfig holds the statically configured dependency statuses
// reported by the health endpoint.
type HealthConfig struct {
	// Services maps dependency name to its configured status
	Services map[string]string
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errors []string

	if c.ServiceName == "" {
		errors = append(errors, "SERVICE_NAME is required")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}

	switch c.Storage.Provider {
	case "fs":
		if c.Storage.UploadDir == "" {
			errors = append(errors, "UPLOAD_DIR is required for fs storage")
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			errors = append(errors, "S3_BUCKET is required for s3 storage")
		}
	default:
		errors = append(errors, fmt.Sprintf("STORAGE_PROVIDER %q is not one of fs, s3", c.Storage.Provider))
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errors = append(errors, "METRICS_ADDR is required when metrics are enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// Environment detection methods
func (c *Config) IsLocal() bool {
	env := strings.ToLower(c.Environment)
	return env == "local" || env == "development" || env == "dev"
}

func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

func (c *Config) IsTest() bool {
	env := strings.ToLower(c.Environment)
	return env == "test" || env == "testing"
}
