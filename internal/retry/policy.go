// Package retry provides the attempt budget and pacing shared by the login
// loop and the probe loop.
//
// A [Policy] either bounds the number of attempts or, with [Unlimited], lets
// the caller retry until something else (a success, a claim by another
// worker, or context cancellation) ends the loop.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Unlimited is the MaxAttempts sentinel that disables the attempt bound.
const Unlimited = -1

// Policy controls how many attempts a loop may make and how long it pauses
// between them.
type Policy struct {
	// MaxAttempts is the attempt budget. Unlimited (-1) means no bound.
	MaxAttempts int

	// Delay is the pause between attempts. Zero retries immediately.
	Delay time.Duration
}

// UnlimitedPolicy returns a Policy with no attempt bound and no delay.
func UnlimitedPolicy() Policy {
	return Policy{MaxAttempts: Unlimited}
}

// Limit returns a Policy bounded to n attempts with no delay.
func Limit(n int) Policy {
	return Policy{MaxAttempts: n}
}

// Validate reports whether the policy is usable.
func (p Policy) Validate() error {
	if p.MaxAttempts != Unlimited && p.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive or unlimited, got %d", p.MaxAttempts)
	}
	if p.Delay < 0 {
		return errors.New("retry delay cannot be negative")
	}
	return nil
}

// Unbounded reports whether the policy has no attempt bound.
func (p Policy) Unbounded() bool {
	return p.MaxAttempts == Unlimited
}

// Exhausted reports whether attempts has reached the budget.
// An unbounded policy is never exhausted.
func (p Policy) Exhausted(attempts int) bool {
	if p.Unbounded() {
		return false
	}
	return attempts >= p.MaxAttempts
}

// Wait pauses for Delay, returning early with ctx.Err() if ctx is done.
// A zero delay only checks the context.
func (p Policy) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// String renders the budget for logs.
func (p Policy) String() string {
	if p.Unbounded() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", p.MaxAttempts)
}
