package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestudio/observability/types"
)

// decodeLine parses the single JSON line written to buf.
func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	require.Equal(t, 1, strings.Count(buf.String(), "\n"), "expected exactly one line")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestJSONLogger_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("firestudio.test", "test", "debug", buf, nil)

	log.Info(context.Background(), "Camera capture stored", types.Fields{"filename": "a.jpg"})

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Camera capture stored", entry["message"])
	assert.Equal(t, "firestudio.test", entry["logger"])
	assert.Equal(t, "test", entry["env"])
	assert.Equal(t, "a.jpg", entry["filename"])
	assert.NotEmpty(t, entry["timestamp"])
	assert.NotEmpty(t, entry["hostname"])
}

func TestJSONLogger_LevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "warn", buf, nil)

	log.Debug(context.Background(), "hidden", nil)
	log.Info(context.Background(), "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "visible", nil)
	entry := decodeLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
}

func TestJSONLogger_ContextEnrichment(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	ctx := context.WithValue(context.Background(), "request_id", "req-1") //nolint:staticcheck
	ctx = context.WithValue(ctx, "device_id", "esp32-7")                  //nolint:staticcheck

	log.Info(ctx, "Sensor data received", nil)

	entry := decodeLine(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "esp32-7", entry["device_id"])
}

func TestJSONLogger_PositionalFormatting(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	log.Info(context.Background(), "Processed %d frames from %s", types.Fields{
		"args": []interface{}{3, "cam-1"},
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "Processed 3 frames from cam-1", entry["message"])
	assert.NotContains(t, entry, "args")
	assert.NotContains(t, entry, "interpolation_error")
}

func TestJSONLogger_PositionalFormattingFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	// Too few args; the raw template must survive
	log.Info(context.Background(), "Processed %d frames from %s", types.Fields{
		"args": []interface{}{3},
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "Processed %d frames from %s", entry["message"])
	assert.Contains(t, entry, "interpolation_error")
}

func TestJSONLogger_ErrorRendering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	log.Error(context.Background(), "Upload failed", errors.New("disk full"), types.Fields{
		"cause": errors.New("no space left"),
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "*errors.errorString", entry["error_type"])
	assert.Equal(t, "no space left", entry["cause"])
}

func TestJSONLogger_UnicodeNormalization(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	log.Info(context.Background(), "bad \xff bytes", types.Fields{
		"name": "cam\xfe1",
	})

	entry := decodeLine(t, buf)
	msg := entry["message"].(string)
	assert.Contains(t, msg, "bad")
	assert.Contains(t, msg, "bytes")
	assert.NotContains(t, msg, "\xff")
	assert.NotContains(t, entry["name"].(string), "\xfe")
}

func TestJSONLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	root := New("test", "test", "info", buf, types.Fields{"component": "root"})

	child := root.WithFields(types.Fields{"component": "camera", "region": "eu"})
	child.Info(context.Background(), "ready", nil)

	entry := decodeLine(t, buf)
	assert.Equal(t, "camera", entry["component"])
	assert.Equal(t, "eu", entry["region"])

	// The parent keeps its own fields
	buf.Reset()
	root.Info(context.Background(), "ready", nil)
	entry = decodeLine(t, buf)
	assert.Equal(t, "root", entry["component"])
	assert.NotContains(t, entry, "region")
}

func TestJSONLogger_UnserializableFieldFallback(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	// Channels cannot be marshaled; a fallback record must still come out
	log.Info(context.Background(), "weird payload", types.Fields{
		"ch": make(chan int),
	})

	entry := decodeLine(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "weird payload", entry["message"])
	assert.Contains(t, entry, "log_error")
	assert.NotContains(t, entry, "ch")
}

func TestJSONLogger_ExactlyOneLinePerEntry(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New("test", "test", "info", buf, nil)

	log.Info(context.Background(), "one", nil)
	log.Info(context.Background(), "two", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]interface{}
		assert.NoError(t, json.Unmarshal([]byte(line), &entry))
	}
}
