// Package ratelimit implements a fixed-window request limiter held entirely
// in process memory. Buckets reset wholesale at window boundaries and are
// lost on restart; if the storefront ever scales horizontally this is the
// piece that needs a shared store.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// janitorInterval is how often expired buckets are swept.
const janitorInterval = time.Minute

// Rule is the per-route budget: at most Max requests per Window.
type Rule struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of a single request. RetryAfterSeconds is only set
// on rejection and is always at least 1.
type Decision struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per (route, client) key in fixed windows. The
// check-and-increment is atomic under one mutex; concurrent requests from
// the same client can not lose updates.
type Limiter struct {
	mu      sync.Mutex
	rules   map[string]Rule
	buckets map[string]*bucket
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a limiter with the given per-route rules and starts the
// background sweep of expired buckets. Close releases it.
func New(rules map[string]Rule) *Limiter {
	l := &Limiter{
		rules:   rules,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	l.wg.Add(1)
	go l.janitorLoop()

	return l
}

// Allow records one request against the bucket for route+clientKey and
// reports whether it fits the route's budget. Routes without a configured
// rule are unlimited.
func (l *Limiter) Allow(route, clientKey string) Decision {
	rule, ok := l.rules[route]
	if !ok {
		return Decision{Allowed: true}
	}

	key := route + ":" + clientKey
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists || !now.Before(b.resetAt) {
		// fresh window: the bucket is replaced, not incremented
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(rule.Window)}
		return Decision{Allowed: true, Remaining: rule.Max - 1}
	}

	if b.count >= rule.Max {
		retryAfter := int(math.Ceil(b.resetAt.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Decision{Allowed: false, RetryAfterSeconds: retryAfter}
	}

	b.count++
	return Decision{Allowed: true, Remaining: rule.Max - b.count}
}

// Close stops the background sweep and waits for it to finish.
func (l *Limiter) Close() {
	close(l.stop)
	l.wg.Wait()
}

func (l *Limiter) janitorLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweepExpired()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweepExpired() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, key)
		}
	}
}
