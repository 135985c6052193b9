// Package blobkv stores storage.KV values as objects in a blob.Store.
package blobkv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/fdg312/nutrition-ledger/internal/blob"
	"github.com/fdg312/nutrition-ledger/internal/storage"
)

const contentType = "application/json"

// KVStore maps key to object <prefix>/kv/<key>.json.
type KVStore struct {
	store  blob.Store
	prefix string

	mu     sync.RWMutex
	closed bool
}

func New(store blob.Store, prefix string) *KVStore {
	return &KVStore{store: store, prefix: prefix}
}

func (s *KVStore) objectKey(key string) string {
	return path.Join(s.prefix, "kv", key+".json")
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.isClosed() {
		return nil, false, storage.ErrClosed
	}

	data, err := s.store.GetObject(ctx, s.objectKey(key))
	if errors.Is(err, blob.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if s.isClosed() {
		return storage.ErrClosed
	}

	if _, err := s.store.PutObject(ctx, s.objectKey(key), value, contentType); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *KVStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *KVStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
