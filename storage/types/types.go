// Package types defines the object storage contract used for camera capture
// uploads.
package types

import (
	"context"
	"io"
)

// ObjectMetadata carries optional attributes stored alongside an object.
type ObjectMetadata struct {
	// ContentType is the MIME type of the object (e.g. "image/jpeg")
	ContentType string `json:"content_type,omitempty"`

	// OriginalFilename is the client-supplied filename, kept for reference
	OriginalFilename string `json:"original_filename,omitempty"`

	// UserMetadata holds arbitrary additional attributes
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

// ObjectStorage is the contract for upload storage backends.
// Implementations must be safe for concurrent use.
type ObjectStorage interface {
	// Put stores an object under key, reading its content from reader.
	Put(ctx context.Context, key string, reader io.Reader, metadata ObjectMetadata) (int64, error)

	// Get retrieves an object. The caller must close the returned reader.
	// Returns ErrObjectNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
