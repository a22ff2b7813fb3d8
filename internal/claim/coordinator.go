// Package claim holds the write-once success state shared by all probe
// workers.
//
// A [Coordinator] is the only source of truth for whether a worker has
// reached the target. Exactly one call to [Coordinator.TryClaim] over the
// coordinator's lifetime returns true; nothing ever resets it.
package claim

import "sync/atomic"

// Coordinator records the single winning worker.
//
// The zero value is ready to use. A Coordinator must not be copied after
// first use.
type Coordinator struct {
	// winner is nil until claimed; claimed and winner flip together
	// through a single compare-and-swap.
	winner atomic.Pointer[string]
}

// New returns an unclaimed Coordinator.
func New() *Coordinator {
	return &Coordinator{}
}

// TryClaim atomically claims success for workerID.
// It returns true for exactly one caller; every other call returns false
// without side effects.
func (c *Coordinator) TryClaim(workerID string) bool {
	id := workerID
	return c.winner.CompareAndSwap(nil, &id)
}

// Claimed reports whether any worker has claimed success.
func (c *Coordinator) Claimed() bool {
	return c.winner.Load() != nil
}

// Winner returns the claiming worker's ID, if any.
func (c *Coordinator) Winner() (string, bool) {
	w := c.winner.Load()
	if w == nil {
		return "", false
	}
	return *w, true
}
