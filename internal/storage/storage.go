// Package storage provides object storage for session attachments.
// MinIO and Google Cloud Storage backends are selectable via
// configuration.
package storage

import (
	"context"
	"io"
)

// ObjectStore defines the object operations the attachment handlers
// need from a storage backend.
type ObjectStore interface {
	// EnsureBucket makes sure the configured bucket exists.
	EnsureBucket(ctx context.Context) error

	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens a reader for the object under the given key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object under the given key.
	Delete(ctx context.Context, key string) error
}
