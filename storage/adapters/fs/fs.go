// Package fs implements object storage on the local filesystem. It backs
// the camera upload directory in local deployments.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	obs "firestudio/observability/types"
	"firestudio/storage/types"
)

// Metric and label names shared with the s3 adapter are defined in the
// storage factory; the adapters only record against them.
const backendLabel = "fs"

// Storage implements ObjectStorage using a base directory on disk.
// Object metadata is persisted next to the object as a .meta.json file.
type Storage struct {
	basePath string
	logger   obs.Logger
	registry obs.Registry
}

// New creates a filesystem-backed object storage rooted at basePath,
// creating the directory if needed.
func New(basePath string, logger obs.Logger, registry obs.Registry) (*Storage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	logger.Info(context.Background(), "Filesystem storage initialized", obs.Fields{
		"base_path": basePath,
	})

	return &Storage{
		basePath: basePath,
		logger:   logger,
		registry: registry,
	}, nil
}

// Put stores an object under key.
func (s *Storage) Put(ctx context.Context, key string, reader io.Reader, metadata types.ObjectMetadata) (int64, error) {
	start := time.Now()
	defer s.observe("put", start)

	objectPath, err := s.objectPath(key)
	if err != nil {
		s.countError("put")
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(objectPath), 0o755); err != nil {
		s.countError("put")
		return 0, fmt.Errorf("failed to create object directory: %w", err)
	}

	file, err := os.Create(objectPath)
	if err != nil {
		s.countError("put")
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		s.countError("put")
		return 0, fmt.Errorf("failed to write data: %w", err)
	}

	if err := s.saveMetadata(objectPath, metadata); err != nil {
		s.countError("put")
		return 0, err
	}

	_ = s.registry.ObserveHistogram("upload_size_bytes", obs.Labels{"backend": backendLabel}, float64(written))
	s.logger.Debug(ctx, "Object stored", obs.Fields{
		"key":   key,
		"bytes": written,
	})

	return written, nil
}

// Get retrieves an object.
func (s *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	start := time.Now()
	defer s.observe("get", start)

	objectPath, err := s.objectPath(key)
	if err != nil {
		s.countError("get")
		return nil, err
	}

	file, err := os.Open(objectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, types.ErrObjectNotFound)
		}
		s.countError("get")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Exists reports whether an object is stored under key.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	objectPath, err := s.objectPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(objectPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// Delete removes an object and its metadata file.
func (s *Storage) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer s.observe("delete", start)

	objectPath, err := s.objectPath(key)
	if err != nil {
		s.countError("delete")
		return err
	}

	if err := os.Remove(objectPath); err != nil && !os.IsNotExist(err) {
		s.countError("delete")
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if err := os.Remove(metadataPath(objectPath)); err != nil && !os.IsNotExist(err) {
		s.countError("delete")
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

// objectPath resolves key inside the base directory, rejecting traversal.
func (s *Storage) objectPath(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.basePath, cleaned), nil
}

func (s *Storage) saveMetadata(objectPath string, metadata types.ObjectMetadata) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(metadataPath(objectPath), data, 0o644); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

func (s *Storage) observe(operation string, start time.Time) {
	_ = s.registry.ObserveHistogram("storage_operation_duration_seconds", obs.Labels{
		"operation": operation,
		"backend":   backendLabel,
	}, time.Since(start).Seconds())
}

func (s *Storage) countError(operation string) {
	_ = s.registry.IncrementCounter("storage_errors_total", obs.Labels{
		"operation": operation,
		"backend":   backendLabel,
	}, 1)
}

func metadataPath(objectPath string) string {
	return objectPath + ".meta.json"
}
