package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MemoryStore keeps snapshots in process memory. It is used in development
// and tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// NewMemoryStoreFromFiles seeds the store from <base>/seed_incomes.json and
// <base>/seed_costs.json when they exist. Missing files are skipped; a seed
// that does not decode is an error.
func NewMemoryStoreFromFiles(base string) (*MemoryStore, error) {
	s := NewMemoryStore()
	for _, key := range []string{KeyIncomes, KeyCosts} {
		path := filepath.Join(base, "seed_"+key+".json")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", path, err)
		}
		if _, err := DecodeRecords(data); err != nil {
			return nil, fmt.Errorf("seed %s: %w", path, err)
		}
		s.items[key] = data
	}
	return s, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Keys returns the number of stored keys.
func (s *MemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
