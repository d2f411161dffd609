// Package blob abstracts the object storage that holds raw cow photos and
// the persisted gallery document. The production backend is any S3-compatible
// service; tests use the in-memory implementation.
package blob

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations must return an error that satisfies
// `errors.Is(err, ErrNotFound)` for missing keys.
var ErrNotFound = errors.New("blob: object not found")

// ObjectInfo describes an object without its contents.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a whole-object key-value view of a bucket.
type Store interface {
	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error

	// Get returns the full contents of an object.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an object atomically, overwriting any previous version.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// List returns all object keys with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Stat returns object metadata without downloading the contents.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// Copy duplicates an object server-side.
	Copy(ctx context.Context, src, dst string) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
