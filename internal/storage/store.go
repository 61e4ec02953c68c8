// Package storage defines the local key/value persistence used for
// favorites and the launch detail cache.
package storage

import (
	"context"
	"errors"
)

// Common errors.
var (
	ErrStoreClosed = errors.New("storage is closed")
	ErrNotFound    = errors.New("key not found")
	ErrCorrupt     = errors.New("stored value is corrupt")
)

// Change describes a write to the store. External is set when the write
// came from another process sharing the same database; Key is empty in
// that case because the writer is unknown.
type Change struct {
	Key      string
	External bool
}

// Store is a string key/value store with change notification.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Watch subscribes to changes. The returned func unsubscribes.
	Watch() (<-chan Change, func())

	// Close releases the store and closes all watch channels.
	Close() error
}
