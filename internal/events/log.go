// Package events keeps a bounded, process-local log of payment outcomes
// reported by the payments provider's webhooks. Nothing here survives a
// restart; the provider dashboard stays the system of record.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxEntriesPerKey bounds how many entries are retained per lookup key and
// globally. Eviction is strict FIFO by insertion.
const MaxEntriesPerKey = 10

// Type classifies a payment outcome.
type Type string

const (
	TypeSucceeded Type = "succeeded"
	TypeFailed    Type = "failed"
)

// Entry is one recorded payment outcome.
type Entry struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	CreatedAt       time.Time `json:"createdAt"`
	SessionID       string    `json:"sessionId,omitempty"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	CustomerEmail   string    `json:"customerEmail,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
}

// Log indexes entries by session id, by payment-intent id, and globally,
// keeping the MaxEntriesPerKey most recent per index.
type Log struct {
	mu        sync.RWMutex
	bySession map[string][]Entry
	byIntent  map[string][]Entry
	recent    []Entry
}

func NewLog() *Log {
	return &Log{
		bySession: make(map[string][]Entry),
		byIntent:  make(map[string][]Entry),
	}
}

// Record appends an entry. A missing id or creation time is filled in.
func (l *Log) Record(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.recent = appendBounded(l.recent, entry)
	if entry.SessionID != "" {
		l.bySession[entry.SessionID] = appendBounded(l.bySession[entry.SessionID], entry)
	}
	if entry.PaymentIntentID != "" {
		l.byIntent[entry.PaymentIntentID] = appendBounded(l.byIntent[entry.PaymentIntentID], entry)
	}
}

// BySession returns the retained entries for a checkout session, oldest first.
func (l *Log) BySession(sessionID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyEntries(l.bySession[sessionID])
}

// ByIntent returns the retained entries for a payment intent, oldest first.
func (l *Log) ByIntent(paymentIntentID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyEntries(l.byIntent[paymentIntentID])
}

// Recent returns the globally retained entries, oldest first.
func (l *Log) Recent() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyEntries(l.recent)
}

func appendBounded(entries []Entry, entry Entry) []Entry {
	entries = append(entries, entry)
	if len(entries) > MaxEntriesPerKey {
		entries = entries[len(entries)-MaxEntriesPerKey:]
	}
	return entries
}

func copyEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
