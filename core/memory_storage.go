package core

import (
	"context"
	"sync"
)

// MemoryStorage is an in-memory implementation of the Storage port.
// State does not survive process restarts; it exists for tests and
// for short-lived tooling that has no use for a persisted cart.
type MemoryStorage struct {
	mu     sync.RWMutex
	store  map[string]string
	logger Logger
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		store:  make(map[string]string),
		logger: &NoOpLogger{},
	}
}

// SetLogger configures the logger for this storage
func (m *MemoryStorage) SetLogger(logger Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Load retrieves a value; missing keys return an empty string
func (m *MemoryStorage) Load(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.store[key]
	if !exists {
		m.logger.Debug("Storage miss", map[string]interface{}{
			"operation": "storage_load",
			"key":       key,
		})
		return "", nil
	}
	return value, nil
}

// Save stores a value under the given key
func (m *MemoryStorage) Save(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug("Storage save", map[string]interface{}{
		"operation":  "storage_save",
		"key":        key,
		"value_size": len(value),
	})

	m.store[key] = value
	return nil
}

// Delete removes a value
func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.store[key]
	delete(m.store, key)

	m.logger.Debug("Storage delete", map[string]interface{}{
		"operation": "storage_delete",
		"key":       key,
		"existed":   existed,
	})

	return nil
}
