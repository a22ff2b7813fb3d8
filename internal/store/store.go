package store

import "time"

// WorkerStatus is the latest known state of one worker.
//
// It is optimised for JSON serialization (used by the REST API and SSE) and
// decoupled from the probe package's types.
type WorkerStatus struct {
	// Name is the worker ID.
	Name string `json:"name"`

	// State is the worker state ("probing", "succeeded", ...).
	State string `json:"state"`

	// Attempts is the number of probes performed so far.
	Attempts int `json:"attempts"`

	// URL is the page location after the latest probe.
	URL string `json:"url"`

	// UpdatedAt is when this status was recorded.
	UpdatedAt time.Time `json:"updated_at"`

	// Error holds the latest probe or termination error, if any.
	Error *string `json:"error"`
}

// Snapshot is a point-in-time view of the run.
type Snapshot struct {
	Phase   string         `json:"phase"`
	Winner  string         `json:"winner,omitempty"`
	Workers []WorkerStatus `json:"workers"`
}

// Store defines the interface for storing and subscribing to worker updates.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Update stores a worker status and notifies all subscribers.
	// The status is keyed by Name, so later updates replace earlier ones.
	Update(status WorkerStatus)

	// SetPhase records the orchestrator phase and, once known, the winner.
	SetPhase(phase, winner string)

	// Snapshot returns the phase, winner and all worker statuses sorted by name.
	Snapshot() Snapshot

	// Subscribe returns a channel that receives worker status updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan WorkerStatus

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan WorkerStatus)
}
