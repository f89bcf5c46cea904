// Package camera implements the field-device worker: it accepts camera
// image uploads, sensor readings and model prediction reports from edge
// devices and records them through the observability core.
package camera

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"firestudio/handler"
	"firestudio/observability/monitor"
	"firestudio/observability/types"
	storagetypes "firestudio/storage/types"
)

// UploadRequest is the payload for "upload" requests. Image bytes are
// carried base64-encoded so the payload stays valid JSON on every platform.
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// UploadResult describes a stored capture.
type UploadResult struct {
	Success          bool   `json:"success"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	Size             int64  `json:"size"`
	ContentType      string `json:"content_type"`
	UploadTime       string `json:"upload_time"`
}

// ReadingRequest is the payload for "reading" requests.
type ReadingRequest struct {
	DeviceID string  `json:"device_id"`
	DataType string  `json:"data_type"`
	Value    float64 `json:"value"`
}

// PredictionRequest is the payload for "prediction" requests.
type PredictionRequest struct {
	ModelType  string  `json:"model_type"`
	Confidence float64 `json:"confidence"`
}

// Worker implements the handler.Worker interface for camera and sensor
// traffic coming from field devices.
type Worker struct {
	storage storagetypes.ObjectStorage
	logger  types.Logger
	monitor *monitor.Monitor
}

// NewWorker creates a new camera worker.
func NewWorker(storage storagetypes.ObjectStorage, logger types.Logger, mon *monitor.Monitor) *Worker {
	return &Worker{
		storage: storage,
		logger:  logger,
		monitor: mon,
	}
}

// Name returns the worker name
func (w *Worker) Name() string {
	return "camera"
}

// Process routes the request by type. Unknown types fail with a
// non-retryable validation error.
func (w *Worker) Process(ctx context.Context, request handler.Request) (handler.Response, error) {
	switch request.Type {
	case "upload":
		return w.processUpload(ctx, request)
	case "reading":
		return w.processReading(ctx, request)
	case "prediction":
		return w.processPrediction(ctx, request)
	default:
		return handler.NewErrorResponse(
			request.ID,
			"VALIDATION_ERROR",
			"Unknown request type",
			fmt.Sprintf("request type %q is not supported", request.Type),
		), nil
	}
}

// processUpload validates and stores a camera capture
func (w *Worker) processUpload(ctx context.Context, request handler.Request) (handler.Response, error) {
	var upload UploadRequest
	if err := request.Unmarshal(&upload); err != nil {
		w.logger.Error(ctx, "Failed to parse upload payload", err, types.Fields{
			"request_id": request.ID,
		})
		return handler.NewErrorResponse(
			request.ID,
			"INVALID_PAYLOAD",
			"Failed to parse upload request",
			err.Error(),
		), nil
	}

	if !strings.HasPrefix(upload.ContentType, "image/") {
		return handler.NewErrorResponse(
			request.ID,
			"VALIDATION_ERROR",
			"File must be an image",
			fmt.Sprintf("content type %q is not an image", upload.ContentType),
		), nil
	}

	content, err := base64.StdEncoding.DecodeString(upload.Data)
	if err != nil {
		return handler.NewErrorResponse(
			request.ID,
			"INVALID_PAYLOAD",
			"Image data must be base64 encoded",
			err.Error(),
		), nil
	}
	if len(content) == 0 {
		return handler.NewErrorResponse(
			request.ID,
			"VALIDATION_ERROR",
			"Image data is empty",
			"decoded image has zero length",
		), nil
	}

	// Unique storage key, preserving the original extension
	ext := filepath.Ext(upload.Filename)
	key := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	size, err := w.storage.Put(ctx, key, bytes.NewReader(content), storagetypes.ObjectMetadata{
		ContentType:      upload.ContentType,
		OriginalFilename: upload.Filename,
	})
	if err != nil {
		w.logger.Error(ctx, "Failed to store camera capture", err, types.Fields{
			"request_id": request.ID,
			"filename":   key,
		})
		return handler.NewErrorResponse(
			request.ID,
			"STORAGE_ERROR",
			"Failed to save uploaded image",
			err.Error(),
		), nil
	}

	w.logger.Info(ctx, "Camera capture stored", types.Fields{
		"request_id":        request.ID,
		"filename":          key,
		"original_filename": upload.Filename,
		"size":              size,
	})

	result := UploadResult{
		Success:          true,
		Filename:         key,
		OriginalFilename: upload.Filename,
		Size:             size,
		ContentType:      upload.ContentType,
		UploadTime:       time.Now().UTC().Format(time.RFC3339),
	}

	return handler.NewSuccessResponse(request.ID, result)
}

// processReading records a sensor sample from an edge device
func (w *Worker) processReading(ctx context.Context, request handler.Request) (handler.Response, error) {
	var reading ReadingRequest
	if err := request.Unmarshal(&reading); err != nil {
		return handler.NewErrorResponse(
			request.ID,
			"INVALID_PAYLOAD",
			"Failed to parse sensor reading",
			err.Error(),
		), nil
	}

	if reading.DeviceID == "" || reading.DataType == "" {
		return handler.NewErrorResponse(
			request.ID,
			"VALIDATION_ERROR",
			"Sensor reading requires device_id and data_type",
			"missing device_id or data_type",
		), nil
	}

	w.monitor.RecordSensorSample(ctx, reading.DeviceID, reading.DataType)

	return handler.NewSuccessResponse(request.ID, map[string]interface{}{
		"recorded":  true,
		"device_id": reading.DeviceID,
		"data_type": reading.DataType,
	})
}

// processPrediction records a model prediction made by an edge device
func (w *Worker) processPrediction(ctx context.Context, request handler.Request) (handler.Response, error) {
	var prediction PredictionRequest
	if err := request.Unmarshal(&prediction); err != nil {
		return handler.NewErrorResponse(
			request.ID,
			"INVALID_PAYLOAD",
			"Failed to parse prediction report",
			err.Error(),
		), nil
	}

	if prediction.ModelType == "" {
		return handler.NewErrorResponse(
			request.ID,
			"VALIDATION_ERROR",
			"Prediction report requires model_type",
			"missing model_type",
		), nil
	}

	w.monitor.RecordModelPrediction(ctx, prediction.ModelType, prediction.Confidence)

	return handler.NewSuccessResponse(request.ID, map[string]interface{}{
		"recorded":   true,
		"model_type": prediction.ModelType,
	})
}

// Health verifies the storage backend is reachable by probing for a
// well-known key. A missing object is healthy; only transport or
// permission failures are not.
func (w *Worker) Health(ctx context.Context) error {
	if w.storage == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := w.storage.Exists(ctx, ".healthcheck"); err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
