package store

import (
	"sync"
	"time"
)

const subscriberBuffer = 16

// MemoryStore is an in-memory implementation of [Store].
//
// The stored snapshot is never mutated after Publish; readers get a copy of
// the command slice so they cannot affect later readers.
//
// Subscribers receive updates via buffered channels. Updates are sent
// non-blocking; if a subscriber's buffer is full, the update is dropped for
// that subscriber to prevent blocking the refresh path.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	health   Health

	subMu       sync.RWMutex
	subscribers map[chan Update]struct{}
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscribers: make(map[chan Update]struct{}),
	}
}

// Publish stores the snapshot, resets failure tracking and notifies
// all subscribers.
func (m *MemoryStore) Publish(snapshot Snapshot) {
	stored := cloneSnapshot(&snapshot)

	m.mu.Lock()
	m.snapshot = stored
	m.health.Ready = true
	m.health.LastAttemptAt = snapshot.Updated
	m.health.LastSuccessAt = snapshot.Updated
	m.health.LastError = nil
	m.health.ConsecutiveFailures = 0
	update := Update{Snapshot: cloneSnapshot(stored), Health: m.health}
	m.mu.Unlock()

	m.notifySubscribers(update)
}

// RecordFailure records a failed refresh attempt and notifies subscribers.
// The last published snapshot stays in place.
func (m *MemoryStore) RecordFailure(message string, at time.Time) {
	m.mu.Lock()
	m.health.LastAttemptAt = at
	m.health.LastError = &message
	m.health.ConsecutiveFailures++
	update := Update{Snapshot: cloneSnapshot(m.snapshot), Health: m.health}
	m.mu.Unlock()

	m.notifySubscribers(update)
}

// Latest returns a copy of the stored snapshot and the current health.
func (m *MemoryStore) Latest() (*Snapshot, Health) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneSnapshot(m.snapshot), m.health
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Update {
	ch := make(chan Update, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Update) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the update to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(update Update) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- update:
		default:
			// subscriber is slow, drop the message
		}
	}
}

// cloneSnapshot copies the command slice. Pointer fields are shared because
// nothing ever writes through them.
func cloneSnapshot(s *Snapshot) *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Commands = append([]CommandStatus(nil), s.Commands...)
	return &cp
}
