// Package storage selects and constructs the upload storage backend.
package storage

import (
	"fmt"

	"firestudio/config"
	obs "firestudio/observability/types"
	"firestudio/storage/adapters/fs"
	"firestudio/storage/adapters/s3"
	"firestudio/storage/types"
)

// New creates the ObjectStorage implementation selected by the
// configuration and defines the shared storage instruments on the registry.
// This is the only place that knows about concrete backends.
func New(cfg *config.StorageConfig, logger obs.Logger, registry obs.Registry) (types.ObjectStorage, error) {
	if err := defineInstruments(registry); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "fs":
		return fs.New(cfg.UploadDir, logger, registry)
	case "s3":
		return s3.NewClient(&cfg.S3, logger, registry)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

// defineInstruments declares the instruments recorded by every backend.
func defineInstruments(registry obs.Registry) error {
	definitions := []struct {
		name   string
		kind   obs.MetricKind
		help   string
		labels []string
	}{
		{"storage_operation_duration_seconds", obs.KindHistogram,
			"Duration of storage operations", []string{"operation", "backend"}},
		{"storage_errors_total", obs.KindCounter,
			"Total storage operation errors", []string{"operation", "backend"}},
		{"upload_size_bytes", obs.KindHistogram,
			"Size of stored uploads", []string{"backend"}},
	}

	for _, d := range definitions {
		if err := registry.Define(d.name, d.kind, d.help, d.labels...); err != nil {
			return fmt.Errorf("storage instrument %q: %w", d.name, err)
		}
	}
	return nil
}
