package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Persister.Load when no cart is stored under
// the given key.
var ErrNotFound = errors.New("cart not found")

// Persister stores serialized cart envelopes under opaque keys. Writes happen
// fire-and-forget after every effective mutation; a failed write leaves the
// in-memory state ahead of storage for the rest of the session.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryPersister keeps carts in a process-local map. Used in tests and when
// no Redis address is configured.
type MemoryPersister struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{carts: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.carts[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.carts[key] = stored
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, key)
	return nil
}
