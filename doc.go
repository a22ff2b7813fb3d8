// Package slotwatch watches a gated web resource with several concurrent
// workers and raises a single alert the moment one of them gets through.
//
// A run logs in once, prepares every page, then lets every worker probe the
// target location in a tight loop. The first worker to land on the target
// claims the success, sends the notification exactly once and keeps its page
// open; every other worker notices the claim at its next check point, closes
// its page and stops.
//
// # Quick Start
//
//	target, _ := slotwatch.NewTarget(bookingURL, loginURL, landingURL)
//	w, _ := slotwatch.New(
//	    slotwatch.WithTarget(target),
//	    slotwatch.WithDriver(driver),
//	    slotwatch.WithCredentials(user, pass),
//	    slotwatch.WithLoginForm("Email", "Password", submitURL),
//	    slotwatch.WithWorkers(3),
//	    slotwatch.WithDryRun(true),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	outcome, err := w.Run(ctx) // blocks until shutdown under the default policy
//
// # Budgets and policies
//
// Each worker has an attempt budget set with [WithAttemptBudget]; [Unlimited]
// (the default) means a worker only stops on success or cancellation. The
// login loop is unbounded unless [WithLoginAttempts] is given. Failed probes
// are retried immediately unless [WithProbeDelay] sets a pause.
//
// After the workers stop, [AwaitShutdown] (the default) keeps the run alive
// with the winning page open until the context is cancelled, while
// [ExitOnCompletion] returns straight away.
//
// # Architecture
//
//   - internal/claim: the single success claim shared by all workers
//   - internal/notify: the send-at-most-once guard and the SendGrid sender
//   - internal/session: the login loop
//   - internal/probe: the per-worker probe state machine
//   - internal/browser: the page driver interface and its HTTP implementation
//   - internal/store, internal/server: live status API
package slotwatch
