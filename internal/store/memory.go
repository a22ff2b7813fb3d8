package store

import (
	"sort"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Statuses are keyed by worker name. Subscribers receive updates via
// buffered channels; if a subscriber's buffer is full, the update is dropped
// for that subscriber.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]WorkerStatus
	phase    string
	winner   string

	subscribers map[chan WorkerStatus]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statuses:    make(map[string]WorkerStatus),
		subscribers: make(map[chan WorkerStatus]struct{}),
	}
}

// Update stores a [WorkerStatus] and notifies all subscribers.
func (m *MemoryStore) Update(status WorkerStatus) {
	m.mu.Lock()
	m.statuses[status.Name] = status
	m.mu.Unlock()

	m.notifySubscribers(status)
}

// SetPhase records the orchestrator phase. An empty winner leaves any
// previously recorded winner in place.
func (m *MemoryStore) SetPhase(phase, winner string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.phase = phase
	if winner != "" {
		m.winner = winner
	}
}

// Snapshot returns a copy of the current state, workers sorted by name.
func (m *MemoryStore) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	workers := make([]WorkerStatus, 0, len(m.statuses))
	for _, s := range m.statuses {
		workers = append(workers, s)
	}
	sort.Slice(workers, func(i, j int) bool {
		return workers[i].Name < workers[j].Name
	})

	return Snapshot{
		Phase:   m.phase,
		Winner:  m.winner,
		Workers: workers,
	}
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan WorkerStatus {
	ch := make(chan WorkerStatus, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan WorkerStatus) {
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

// notifySubscribers sends the status to all active subscribers without
// blocking.
func (m *MemoryStore) notifySubscribers(status WorkerStatus) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- status:
		default:
			// subscriber is slow, drop the message
		}
	}
}
