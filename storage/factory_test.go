package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestudio/config"
	"firestudio/observability/logger"
	"firestudio/observability/metrics"
	"firestudio/observability/types"
)

func TestNew_FilesystemBackend(t *testing.T) {
	reg := metrics.NewRegistry("test")
	log := logger.New("test", "test", "error", io.Discard, nil)

	store, err := New(&config.StorageConfig{
		Provider:  "fs",
		UploadDir: t.TempDir(),
	}, log, reg)

	require.NoError(t, err)
	assert.NotNil(t, store)

	// The shared instruments are defined once by the factory
	for _, name := range []string{
		"storage_operation_duration_seconds",
		"storage_errors_total",
		"upload_size_bytes",
	} {
		_, err := reg.Collector(name)
		assert.NoError(t, err, name)
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	reg := metrics.NewRegistry("test")
	log := logger.New("test", "test", "error", io.Discard, nil)

	_, err := New(&config.StorageConfig{Provider: "ftp"}, log, reg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage provider")
}

func TestNew_InstrumentConflictSurfaces(t *testing.T) {
	reg := metrics.NewRegistry("test")
	require.NoError(t, reg.Define("upload_size_bytes", types.KindCounter, "conflicting shape"))

	log := logger.New("test", "test", "error", io.Discard, nil)

	_, err := New(&config.StorageConfig{Provider: "fs", UploadDir: t.TempDir()}, log, reg)
	assert.ErrorIs(t, err, types.ErrDuplicateMetric)
}
