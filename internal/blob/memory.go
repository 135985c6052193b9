package blob

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// MemoryStore — in-memory Store для тестов и CLI dry-run
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memoryObject)}
}

func (m *MemoryStore) PutObject(ctx context.Context, key string, data []byte, contentType string) (int64, error) {
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: copied, contentType: contentType}
	m.mu.Unlock()

	return int64(len(data)), nil
}

func (m *MemoryStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := make([]byte, len(obj.data))
	copy(copied, obj.data)
	return copied, nil
}

func (m *MemoryStore) PresignGet(ctx context.Context, key string, ttlSeconds int) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("memory://%s?ttl=%d", url.PathEscape(key), ttlSeconds), nil
}

func (m *MemoryStore) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// ContentType returns the content type stored with key.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}
