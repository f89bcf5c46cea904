package config

import "strings"

// parse reads configuration from environment variables
func parse() (*Config, error) {
	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", "firestudio"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Version:     getEnv("SERVICE_VERSION", "1.0.0"),

		// HTTP Configuration
		HTTP: HTTPConfig{
			Addr:           getEnv("HTTP_ADDR", ":8001"),
			AllowedOrigins: getList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:9005"),
			ReadTimeout:    getDuration("HTTP_READ_TIMEOUT", "30s"),
			WriteTimeout:   getDuration("HTTP_WRITE_TIMEOUT", "30s"),
		},

		// Metrics Configuration
		Metrics: MetricsConfig{
			Addr:    getEnv("METRICS_ADDR", ":9090"),
			Enabled: getBool("METRICS_ENABLED", true),
		},

		// Storage Configuration
		Storage: StorageConfig{
			Provider:      getEnv("STORAGE_PROVIDER", "fs"),
			UploadDir:     getEnv("UPLOAD_DIR", "uploads/camera_captures"),
			MaxUploadSize: int64(getInt("UPLOAD_MAX_SIZE", 10*1024*1024)),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-2"),
				Bucket:          getEnv("S3_BUCKET", ""),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
		},

		// Handler Configuration
		Handler: HandlerConfig{
			Timeout:        getDuration("HANDLER_TIMEOUT", "30s"),
			MaxRequestSize: int64(getInt("HANDLER_MAX_REQUEST_SIZE", 10*1024*1024)),
			EnableHealth:   getBool("HANDLER_ENABLE_HEALTH", true),
			Platform:       getEnv("HANDLER_PLATFORM", ""),
		},

		// Health Configuration
		Health: HealthConfig{
			Services: getServiceStatuses("HEALTH_SERVICES",
				"database=connected,cache=connected,external_apis=connected"),
		},
	}

	return cfg, nil
}

// getServiceStatuses parses a "name=status,name=status" list into a map
func getServiceStatuses(key, defaultValue string) map[string]string {
	raw := getEnv(key, defaultValue)
	services := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, status, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		services[strings.TrimSpace(name)] = strings.TrimSpace(status)
	}
	return services
}
