package slotwatch

import (
	"time"

	"github.com/jpalmerr/slotwatch/internal/browser"
	"github.com/jpalmerr/slotwatch/internal/notify"
	"github.com/jpalmerr/slotwatch/internal/probe"
	"github.com/jpalmerr/slotwatch/internal/retry"
	"github.com/jpalmerr/slotwatch/internal/session"
)

// Unlimited is the attempt budget meaning "no bound". Pass it to
// [WithAttemptBudget] or [WithLoginAttempts].
const Unlimited = retry.Unlimited

// ErrLoginExhausted is returned by [Watcher.Run] when a bound set with
// [WithLoginAttempts] runs out before the session is established.
var ErrLoginExhausted = session.ErrBudgetExhausted

type (
	// Driver creates the pages workers probe with.
	Driver = browser.Driver

	// Page is one execution context created by a [Driver].
	Page = browser.Page

	// Message is the alert sent when the target is reached.
	Message = notify.Message

	// Receipt is what a [Sender] reports on delivery.
	Receipt = notify.Receipt

	// Sender delivers a [Message].
	Sender = notify.Sender
)

// Phase is the orchestrator's position in a run.
type Phase string

const (
	PhaseStarting       Phase = "starting"
	PhaseAuthenticating Phase = "authenticating"
	PhaseSetup          Phase = "setup"
	PhaseProbing        Phase = "probing"

	// PhaseAwaitingShutdown is entered after probing under [AwaitShutdown].
	// The winning page stays open until the run's context is cancelled.
	PhaseAwaitingShutdown Phase = "awaiting_shutdown"

	PhaseCompleted Phase = "completed"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// ShutdownPolicy decides what [Watcher.Run] does once every worker stopped.
type ShutdownPolicy int

const (
	// AwaitShutdown blocks until the context is cancelled, leaving the
	// winning page open. This is the default.
	AwaitShutdown ShutdownPolicy = iota

	// ExitOnCompletion returns as soon as every worker stopped.
	ExitOnCompletion
)

// String returns the config spelling of the policy.
func (p ShutdownPolicy) String() string {
	switch p {
	case AwaitShutdown:
		return "await"
	case ExitOnCompletion:
		return "exit"
	default:
		return "unknown"
	}
}

// WorkerState is a worker's position in the probe state machine.
type WorkerState string

const (
	StateProbing   WorkerState = WorkerState(probe.StateProbing)
	StateSucceeded WorkerState = WorkerState(probe.StateSucceeded)
	StateExhausted WorkerState = WorkerState(probe.StateExhausted)
	StateCancelled WorkerState = WorkerState(probe.StateCancelled)
)

// String returns the string representation of the state.
func (s WorkerState) String() string {
	return string(s)
}

// StatusEvent is passed to callbacks registered with [WithStatusCallback]
// after each probe and on every worker state change.
type StatusEvent struct {
	Worker   string
	State    WorkerState
	Attempts int
	URL      string
	Err      error
	At       time.Time
}

// WorkerResult is the final report of one worker.
type WorkerResult struct {
	Worker   string
	Page     string
	State    WorkerState
	Attempts int
	URL      string

	// Released is false only for the winner.
	Released bool

	// Err is set when the worker was stopped by cancellation or a panic.
	Err error
}

// Session describes the authenticated session the workers shared.
type Session struct {
	ID            string
	LandingURL    string
	Attempts      int
	Reused        bool
	EstablishedAt time.Time
}

// Outcome is returned by [Watcher.Run].
type Outcome struct {
	// RunID correlates every log record of the run.
	RunID string

	Session Session

	// Results holds one entry per worker, in worker order.
	Results []WorkerResult

	// Winner is the ID of the worker that reached the target, or "".
	Winner string

	// WinnerPage is the winner's page, still open, or nil. Under
	// [AwaitShutdown] it has been closed by the time Run returns.
	WinnerPage Page

	// Notified reports whether the notification guard fired (a dry run
	// counts).
	Notified bool

	// Phase is the last phase reached.
	Phase Phase
}

func toWorkerResult(r probe.Result) WorkerResult {
	return WorkerResult{
		Worker:   r.Worker,
		Page:     r.Page,
		State:    WorkerState(r.State),
		Attempts: r.Attempts,
		URL:      r.URL,
		Released: r.Released,
		Err:      r.Err,
	}
}

func toStatusEvent(e probe.Event) StatusEvent {
	return StatusEvent{
		Worker:   e.Worker,
		State:    WorkerState(e.State),
		Attempts: e.Attempts,
		URL:      e.URL,
		Err:      e.Err,
		At:       e.At,
	}
}

func toSession(s session.Session) Session {
	return Session{
		ID:            s.ID,
		LandingURL:    s.LandingURL,
		Attempts:      s.Attempts,
		Reused:        s.Reused,
		EstablishedAt: s.EstablishedAt,
	}
}
