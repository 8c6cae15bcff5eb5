package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const persistTimeout = time.Second

// Store holds one client's current selection of purchasable items. It is an
// explicitly constructed instance, not a package singleton, so tests and the
// per-client manager can hold isolated carts. All operations are safe for
// concurrent use.
//
// Count and Total are recomputed after every mutation and cached until the
// next one. After every effective mutation the item list is serialized and
// written through the Persister without waiting for the write to finish.
type Store struct {
	mu        sync.Mutex
	items     []LineItem
	count     int
	total     int64
	persister Persister
	key       string
	logger    *zap.Logger

	nextSub int
	subs    map[int]func([]LineItem)
}

func NewStore(persister Persister, key string, logger *zap.Logger) *Store {
	return &Store{
		persister: persister,
		key:       key,
		logger:    logger,
		subs:      make(map[int]func([]LineItem)),
	}
}

// Load rehydrates the store from persisted state. Missing carts start empty;
// corrupted payloads are sanitized, never surfaced as errors.
func (s *Store) Load(ctx context.Context) error {
	data, err := s.persister.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	items := Sanitize(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.recompute()
	return nil
}

// Add puts an item into the cart with the given quantity, clamped to
// [MinQuantity, MaxQuantity]. Adding a productId that is already present
// merges by summing quantities, capped at MaxQuantity. Returns false when
// the cart did not change (merge already at cap, blank identifiers).
func (s *Store) Add(item LineItem, quantity int) bool {
	item.Quantity = quantity
	item = normalize(item)
	if item.ProductID == "" || item.PriceID == "" {
		return false
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID != item.ProductID {
			continue
		}
		merged := s.items[i].Quantity + item.Quantity
		if merged > MaxQuantity {
			merged = MaxQuantity
		}
		if merged == s.items[i].Quantity {
			s.mu.Unlock()
			return false
		}
		s.items[i].Quantity = merged
		s.commitLocked()
		return true
	}

	s.items = append(s.items, item)
	s.commitLocked()
	return true
}

// Remove deletes the item with the given productId. No-op when absent.
func (s *Store) Remove(productID string) bool {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.commitLocked()
			return true
		}
	}
	s.mu.Unlock()
	return false
}

// UpdateQuantity sets the quantity for an existing item, clamped to
// [MinQuantity, MaxQuantity]. No-op when the productId is absent or the
// clamped quantity equals the stored one.
func (s *Store) UpdateQuantity(productID string, quantity int) bool {
	quantity = ClampQuantity(quantity)

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if s.items[i].Quantity == quantity {
			s.mu.Unlock()
			return false
		}
		s.items[i].Quantity = quantity
		s.commitLocked()
		return true
	}
	s.mu.Unlock()
	return false
}

// Clear empties the cart. No-op when already empty.
func (s *Store) Clear() bool {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return false
	}
	s.items = nil
	s.commitLocked()
	return true
}

// Items returns a copy of the current line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Count returns the cached sum of quantities.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Total returns the cached sum of unitAmount x quantity, in minor units.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Subscribe registers fn to be called with an item snapshot after every
// effective mutation. No-op mutations do not notify. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func(items []LineItem)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// commitLocked recomputes derived values, persists, and notifies subscribers.
// It must be entered with the mutex held and releases it.
func (s *Store) commitLocked() {
	s.recompute()
	snapshot := s.snapshotLocked()
	subs := make([]func([]LineItem), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.persist(snapshot)
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) recompute() {
	count := 0
	var total int64
	for _, item := range s.items {
		count += item.Quantity
		total += item.UnitAmount * int64(item.Quantity)
	}
	s.count = count
	s.total = total
}

func (s *Store) snapshotLocked() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// persist writes the serialized cart in the background. The in-memory state
// stays authoritative for the session even when the write fails.
func (s *Store) persist(items []LineItem) {
	data, err := Encode(items)
	if err != nil {
		s.logger.Error("encode cart failed", zap.String("cart_id", s.key), zap.Error(err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persister.Save(ctx, s.key, data); err != nil {
			s.logger.Error("persist cart failed", zap.String("cart_id", s.key), zap.Error(err))
		}
	}()
}
