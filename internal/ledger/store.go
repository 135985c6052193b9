package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/fdg312/nutrition-ledger/internal/storage"
)

// DefaultKey — ключ, под которым хранится вся коллекция дней
const DefaultKey = "nutrition_ledger"

// Store persists the whole Collection as one JSON array under a fixed key.
type Store struct {
	kv  storage.KV
	key string
}

// NewStore creates a Store; an empty key selects DefaultKey.
func NewStore(kv storage.KV, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

// Key returns the storage key in use.
func (s *Store) Key() string {
	return s.key
}

// Load reads and decodes the collection. An absent value is an empty
// collection, not an error.
func (s *Store) Load(ctx context.Context) (Collection, error) {
	raw, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	if !found {
		return Collection{}, nil
	}
	return Decode(raw)
}

// Save writes the collection sorted newest first.
func (s *Store) Save(ctx context.Context, c Collection) error {
	raw, err := Encode(c)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("put %s: %w", s.key, err)
	}
	return nil
}

// Decode parses a persisted collection. Empty input and JSON null decode to
// an empty collection. Days whose dates normalize to the same key are merged.
func Decode(raw []byte) (Collection, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Collection{}, nil
	}

	var c Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if c == nil {
		c = Collection{}
	}
	return c.mergeDuplicates(), nil
}

// Encode serializes the collection newest day first.
func Encode(c Collection) ([]byte, error) {
	sorted := c.SortedDesc()
	for i := range sorted {
		if sorted[i].Entries == nil {
			sorted[i].Entries = []Entry{}
		}
	}
	raw, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return raw, nil
}
