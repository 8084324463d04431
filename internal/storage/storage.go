// Package storage defines the interface for blob storage of uploaded originals.
// The MinIO implementation works with any S3-compatible provider (MinIO,
// ArvanCloud, AWS S3). Objects are written once and never mutated.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// Storage is the interface for storing and retrieving original image bytes.
type Storage interface {
	// Upload streams data to the store under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Download returns the full contents of the object at key.
	Download(ctx context.Context, key string) ([]byte, error)
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
}
