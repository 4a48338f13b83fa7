package credstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store using an in-process map. Values do not
// survive a restart; it exists for tests and short-lived processes.
// All methods are safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory credential store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get retrieves a stored value by key
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	m.mu.RLock()
	value, exists := m.values[key]
	m.mu.RUnlock()

	if !exists {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set stores a value under key
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}

// Delete removes a value by key
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
