package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestudio/observability/logger"
	"firestudio/observability/metrics"
	obs "firestudio/observability/types"
	"firestudio/storage/types"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()

	dir := t.TempDir()
	reg := metrics.NewRegistry("test")
	require.NoError(t, reg.Define("storage_operation_duration_seconds", obs.KindHistogram, "d", "operation", "backend"))
	require.NoError(t, reg.Define("storage_errors_total", obs.KindCounter, "e", "operation", "backend"))
	require.NoError(t, reg.Define("upload_size_bytes", obs.KindHistogram, "s", "backend"))

	log := logger.New("test", "test", "error", io.Discard, nil)

	s, err := New(dir, log, reg)
	require.NoError(t, err)
	return s, dir
}

func TestNew_CreatesBaseDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "captures")
	reg := metrics.NewRegistry("test")
	log := logger.New("test", "test", "error", io.Discard, nil)

	_, err := New(dir, log, reg)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStorage_PutAndGet(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	content := []byte("jpeg bytes")
	written, err := s.Put(ctx, "capture.jpg", bytes.NewReader(content), types.ObjectMetadata{
		ContentType:      "image/jpeg",
		OriginalFilename: "original.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), written)

	reader, err := s.Get(ctx, "capture.jpg")
	require.NoError(t, err)
	defer reader.Close()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStorage_PutWritesMetadataSidecar(t *testing.T) {
	s, dir := newTestStorage(t)

	_, err := s.Put(context.Background(), "capture.jpg", bytes.NewReader([]byte("x")), types.ObjectMetadata{
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "capture.jpg.meta.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "image/jpeg")
}

func TestStorage_GetNotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Get(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, types.ErrObjectNotFound)
}

func TestStorage_Exists(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	exists, err := s.Exists(ctx, "capture.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Put(ctx, "capture.jpg", bytes.NewReader([]byte("x")), types.ObjectMetadata{})
	require.NoError(t, err)

	exists, err = s.Exists(ctx, "capture.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStorage_Delete(t *testing.T) {
	s, dir := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "capture.jpg", bytes.NewReader([]byte("x")), types.ObjectMetadata{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "capture.jpg"))

	exists, err := s.Exists(ctx, "capture.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = os.Stat(filepath.Join(dir, "capture.jpg.meta.json"))
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing object is not an error
	assert.NoError(t, s.Delete(ctx, "capture.jpg"))
}

func TestStorage_RejectsTraversalKeys(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.jpg", "/etc/passwd", "a/../../b", "."} {
		_, err := s.Put(ctx, key, bytes.NewReader([]byte("x")), types.ObjectMetadata{})
		assert.Error(t, err, key)
	}
}

func TestStorage_NestedKeys(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "2026/08/capture.jpg", bytes.NewReader([]byte("x")), types.ObjectMetadata{})
	require.NoError(t, err)

	exists, err := s.Exists(ctx, "2026/08/capture.jpg")
	require.NoError(t, err)
	assert.True(t, exists)
}
