package config

import (
	"context"
	"sync"

	"github.com/doeshing/shai-mongo/internal/domain"
	"github.com/doeshing/shai-mongo/internal/ports"
)

// MemoryStore is a process-local KeyValueStore, used when no settings file
// can be written.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]interface{}{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) (interface{}, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[domain.ConfigKeyPrefix+key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[domain.ConfigKeyPrefix+key] = value
	return nil
}

var _ ports.KeyValueStore = (*MemoryStore)(nil)
