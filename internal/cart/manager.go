package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// storeIdleTTL is how long a live store may go untouched before the
	// janitor drops it. State survives eviction through the persister.
	storeIdleTTL = 30 * time.Minute

	// sweepInterval is how often idle stores are swept.
	sweepInterval = 5 * time.Minute
)

type storeEntry struct {
	store      *Store
	lastAccess time.Time
}

// Manager hands out one Store per cart id. Loads from the persister are
// deduplicated with singleflight so concurrent requests for the same cart
// do not race each other into storage. Stores left untouched for
// storeIdleTTL are evicted by a background janitor and rehydrated from the
// persister on next access, so anonymous traffic can not grow the map
// without bound.
type Manager struct {
	persister Persister
	logger    *zap.Logger
	sfg       singleflight.Group
	now       func() time.Time

	mu     sync.Mutex
	stores map[string]*storeEntry

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates the manager and starts the idle-store sweep. Close
// releases it.
func NewManager(persister Persister, logger *zap.Logger) *Manager {
	m := &Manager{
		persister: persister,
		logger:    logger,
		now:       time.Now,
		stores:    make(map[string]*storeEntry),
		stop:      make(chan struct{}),
	}

	m.wg.Add(1)
	go m.janitorLoop()

	return m
}

// Get returns the live store for cartID, loading and sanitizing persisted
// state on first access.
func (m *Manager) Get(ctx context.Context, cartID string) (*Store, error) {
	m.mu.Lock()
	if entry, ok := m.stores[cartID]; ok {
		entry.lastAccess = m.now()
		m.mu.Unlock()
		return entry.store, nil
	}
	m.mu.Unlock()

	v, err, _ := m.sfg.Do(cartID, func() (interface{}, error) {
		store := NewStore(m.persister, cartID, m.logger)
		if err := store.Load(ctx); err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if existing, ok := m.stores[cartID]; ok {
			existing.lastAccess = m.now()
			return existing.store, nil
		}
		m.stores[cartID] = &storeEntry{store: store, lastAccess: m.now()}
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// Clear empties the cart for cartID. Called from the webhook path once a
// payment is confirmed.
func (m *Manager) Clear(ctx context.Context, cartID string) error {
	store, err := m.Get(ctx, cartID)
	if err != nil {
		return err
	}
	store.Clear()
	return nil
}

// Close stops the background sweep and waits for it to finish.
func (m *Manager) Close() {
	close(m.stop)
	m.wg.Wait()
}

func (m *Manager) janitorLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweepIdle()
		case <-m.stop:
			return
		}
	}
}

// sweepIdle drops stores that have not been touched for storeIdleTTL.
// Every mutation already wrote through the persister, so eviction loses
// nothing.
func (m *Manager) sweepIdle() {
	cutoff := m.now().Add(-storeIdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	for cartID, entry := range m.stores {
		if entry.lastAccess.Before(cutoff) {
			delete(m.stores, cartID)
		}
	}
}
