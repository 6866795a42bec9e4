package apikey

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store, the admin API's default when an
// operator configures static keys rather than an external key service.
type MemStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKey // id -> key record
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{keys: make(map[string]*APIKey)}
}

// Add registers a new key under id, hashing plaintext with bcrypt.
func (s *MemStore) Add(id, plaintext string) error {
	hash, err := HashKey(plaintext)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[id] = &APIKey{ID: id, Hash: hash, Active: true}

	return nil
}

// FindByKey scans every active key for one whose hash matches key. This
// is O(n) in the number of registered keys, acceptable for the admin
// API's expected small operator-managed key set.
func (s *MemStore) FindByKey(_ context.Context, key string) (*APIKey, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range s.keys {
		if k.Active && verify(k.Hash, key) {
			return k, true
		}
	}

	return nil, false
}

// Deactivate marks a key inactive without removing it, matching the
// teacher's soft-delete convention for API keys.
func (s *MemStore) Deactivate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if k, ok := s.keys[id]; ok {
		k.Active = false
	}
}
