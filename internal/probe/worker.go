package probe

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/slotwatch/internal/browser"
	"github.com/jpalmerr/slotwatch/internal/notify"
	"github.com/jpalmerr/slotwatch/internal/retry"
)

// Claimer is the shared success claim.
type Claimer interface {
	TryClaim(workerID string) bool
	Claimed() bool
}

// Notifier fires the success alert at most once.
type Notifier interface {
	NotifyOnce(ctx context.Context, msg notify.Message)
}

// Config describes one worker.
type Config struct {
	// ID names the worker in logs, claims and results.
	ID string

	// TargetURL is probed each attempt. Landing on it is success.
	TargetURL string

	// Policy is the attempt budget and inter-attempt delay.
	Policy retry.Policy

	// Message is the alert sent if this worker wins.
	Message notify.Message

	// Observer, if set, is called synchronously on every probe and state
	// change. It must not block.
	Observer func(Event)
}

// Worker probes a target on its own page until a terminal state.
//
// A Worker is single-use and owned by the goroutine calling Run.
type Worker struct {
	cfg      Config
	page     browser.Page
	claims   Claimer
	notifier Notifier
	logger   *slog.Logger

	attempts int
	state    State
}

// NewWorker creates a Worker. A nil logger uses slog.Default().
func NewWorker(cfg Config, page browser.Page, claims Claimer, notifier Notifier, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:      cfg,
		page:     page,
		claims:   claims,
		notifier: notifier,
		logger:   logger.With("worker", cfg.ID, "page", page.Name()),
		state:    StateProbing,
	}
}

// Run probes until the worker reaches a terminal state and returns its Result.
//
// Each iteration checks the claim, checks the budget, navigates, and checks
// the claim again before looking at where the navigation landed, so a worker
// never acts on a probe that finished after someone else won. Failed probes
// are retried immediately unless the policy sets a delay.
//
// Every terminal path closes the page except success, which leaves it open
// for inspection. A panic inside the loop is recovered and reported as a
// cancelled result.
func (w *Worker) Run(ctx context.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			w.logger.ErrorContext(ctx, "worker panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			res = w.finish(ctx, StateCancelled, fmt.Errorf("worker panic (correlation_id: %s)", correlationID))
		}
	}()

	w.logger.DebugContext(ctx, "probing started", "target", w.cfg.TargetURL, "budget", w.cfg.Policy.String())
	w.emit(nil)

	for {
		if w.claims.Claimed() {
			w.logger.InfoContext(ctx, "target reached by another worker, stopping")
			return w.finish(ctx, StateCancelled, nil)
		}
		if err := ctx.Err(); err != nil {
			return w.finish(ctx, StateCancelled, err)
		}
		if w.cfg.Policy.Exhausted(w.attempts) {
			w.logger.InfoContext(ctx, "maximum attempts reached", "attempts", w.attempts)
			return w.finish(ctx, StateExhausted, nil)
		}

		w.attempts++
		w.logger.DebugContext(ctx, "probe attempt", "attempt", w.attempts)
		navErr := w.page.Navigate(ctx, w.cfg.TargetURL)

		// a probe that was in flight while another worker claimed is discarded
		if w.claims.Claimed() {
			w.logger.InfoContext(ctx, "target reached by another worker during probe, stopping")
			return w.finish(ctx, StateCancelled, nil)
		}

		if navErr != nil {
			w.logger.DebugContext(ctx, "probe navigation failed", "attempt", w.attempts, "error", navErr)
		} else if w.page.URL() == w.cfg.TargetURL {
			if !w.claims.TryClaim(w.cfg.ID) {
				w.logger.InfoContext(ctx, "target reached but another worker claimed first")
				return w.finish(ctx, StateCancelled, nil)
			}
			w.logger.InfoContext(ctx, "target reached, sending notification", "attempt", w.attempts)
			w.notifier.NotifyOnce(ctx, w.cfg.Message)
			return w.finish(ctx, StateSucceeded, nil)
		}

		w.emit(navErr)
		w.logger.DebugContext(ctx, "probe failed, retrying", "attempt", w.attempts, "url", w.page.URL())

		if err := w.cfg.Policy.Wait(ctx); err != nil {
			return w.finish(ctx, StateCancelled, err)
		}
	}
}

// finish moves to a terminal state and releases the page unless the worker won.
func (w *Worker) finish(ctx context.Context, state State, err error) Result {
	w.state = state

	released := false
	if state != StateSucceeded {
		if cerr := w.page.Close(); cerr != nil {
			w.logger.WarnContext(ctx, "closing page failed", "error", cerr)
		} else {
			released = true
		}
	}

	w.logger.InfoContext(ctx, "worker stopped",
		"state", state.String(),
		"attempts", w.attempts,
		"page_released", released,
	)
	w.emit(err)

	return Result{
		Worker:   w.cfg.ID,
		Page:     w.page.Name(),
		State:    state,
		Attempts: w.attempts,
		URL:      w.page.URL(),
		Released: released,
		Err:      err,
	}
}

func (w *Worker) emit(err error) {
	if w.cfg.Observer == nil {
		return
	}
	w.cfg.Observer(Event{
		Worker:   w.cfg.ID,
		State:    w.state,
		Attempts: w.attempts,
		URL:      w.page.URL(),
		Err:      err,
		At:       time.Now(),
	})
}
