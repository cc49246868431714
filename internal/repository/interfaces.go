package repository

import "context"

// BlobStore persists string values under string keys
type BlobStore interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// Put creates or replaces the value stored under key
	Put(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
