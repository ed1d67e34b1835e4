package localstore

import (
	"context"
	"slices"
	"sync"

	"github.com/DanielPopoola/atelier-storefront/internal/core/ports"
)

// MemoryStore is a process-local LocalStore, used when no Redis address is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrStateNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data[key] = slices.Clone(data)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
