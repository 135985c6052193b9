package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// KV — durable key-value slot used by the ledger and the targets store.
// Values are opaque bytes and are always read and written in full.
type KV interface {
	// Get returns the value stored under key; found=false when absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the backend (pool, file handle).
	Close() error
}
