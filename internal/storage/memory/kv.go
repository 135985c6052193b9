package memory

import (
	"context"
	"sync"

	"github.com/fdg312/nutrition-ledger/internal/storage"
)

// KVStore — in-memory реализация storage.KV (для тестов и local режима)
type KVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// NewKV создаёт пустой KVStore
func NewKV() *KVStore {
	return &KVStore{
		values: make(map[string][]byte),
	}
}

func (m *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, storage.ErrClosed
	}

	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}

	// Return a copy
	copied := make([]byte, len(v))
	copy(copied, v)
	return copied, true, nil
}

func (m *KVStore) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return storage.ErrClosed
	}

	copied := make([]byte, len(value))
	copy(copied, value)
	m.values[key] = copied

	return nil
}

func (m *KVStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
