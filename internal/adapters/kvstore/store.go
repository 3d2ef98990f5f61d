// Package kvstore provides the key-value persistence port and its
// in-memory and Redis implementations.
package kvstore

import "context"

// Store is the persistence port snapshots and learned state go through.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes the value at key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	// Close releases resources held by the store.
	Close() error
}
