package probe

import "time"

// State is a worker's position in the probe state machine.
type State string

const (
	// StateProbing is the only non-terminal state.
	StateProbing State = "probing"

	// StateSucceeded means this worker reached the target and won the claim.
	StateSucceeded State = "succeeded"

	// StateExhausted means the attempt budget ran out without success.
	StateExhausted State = "exhausted"

	// StateCancelled means another worker won, or the worker was stopped.
	StateCancelled State = "cancelled"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether s ends the worker.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted || s == StateCancelled
}

// Result is reported by [Worker.Run] when the worker stops.
type Result struct {
	// Worker is the worker's ID.
	Worker string

	// Page is the name of the page the worker drove.
	Page string

	// State is the terminal state.
	State State

	// Attempts is the number of probes performed.
	Attempts int

	// URL is the page location at the time the worker stopped.
	URL string

	// Released is false only for the winner, whose page stays open.
	Released bool

	// Err carries the reason for an abnormal stop (context cancellation or a
	// recovered panic). Losing the race or running out of budget is not an
	// error.
	Err error
}

// Event describes a state change or a completed probe.
type Event struct {
	Worker   string
	State    State
	Attempts int
	URL      string
	Err      error
	At       time.Time
}
