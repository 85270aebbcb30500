// Package storage persists serialized containers, locally or in S3.
package storage

import "context"

// ObjectStore abstracts where container blobs live. Implementations must
// make Put atomic: a reader never observes a partially written object.
type ObjectStore interface {
	// Put stores data under name, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Get returns the object's bytes. A missing object reports the
	// OBJECT_NOT_FOUND code.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists checks whether an object is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// List returns object names under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
