package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Load())

	cfg := MustGet()
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "firestudio", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8001", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:9005"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "fs", cfg.Storage.Provider)
	assert.Equal(t, "uploads/camera_captures", cfg.Storage.UploadDir)
	assert.Equal(t, map[string]string{
		"database":      "connected",
		"cache":         "connected",
		"external_apis": "connected",
	}, cfg.Health.Services)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9001")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("HEALTH_SERVICES", "database=connected,cache=disconnected")

	require.NoError(t, Load())

	cfg := MustGet()
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9001", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, map[string]string{
		"database": "connected",
		"cache":    "disconnected",
	}, cfg.Health.Services)
}

func TestLoad_Idempotent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	require.NoError(t, Load())
	first := MustGet()

	require.NoError(t, Load())
	assert.Same(t, first, MustGet())
}

func TestGet_NotLoaded(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, err := Get()
	assert.Error(t, err)
	assert.False(t, IsLoaded())
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("LOG_LEVEL", "verbose")

	err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("STORAGE_PROVIDER", "s3")

	err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		ServiceName: "",
		LogLevel:    "bogus",
		Storage:     StorageConfig{Provider: "ftp"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVICE_NAME")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "STORAGE_PROVIDER")
}

func TestConfig_EnvironmentDetection(t *testing.T) {
	cfg := &Config{Environment: "local"}
	assert.True(t, cfg.IsLocal())
	assert.False(t, cfg.IsProduction())

	cfg.Environment = "production"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsLocal())

	cfg.Environment = "test"
	assert.True(t, cfg.IsTest())
}

func TestGetServiceStatuses_MalformedPairs(t *testing.T) {
	t.Setenv("HEALTH_SERVICES", "database=connected, ,cache,queue=disconnected")

	services := getServiceStatuses("HEALTH_SERVICES", "")
	assert.Equal(t, map[string]string{
		"database": "connected",
		"queue":    "disconnected",
	}, services)
}
