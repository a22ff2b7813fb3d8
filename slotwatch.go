package slotwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/slotwatch/internal/claim"
	"github.com/jpalmerr/slotwatch/internal/log"
	"github.com/jpalmerr/slotwatch/internal/notify"
	"github.com/jpalmerr/slotwatch/internal/probe"
	"github.com/jpalmerr/slotwatch/internal/retry"
	"github.com/jpalmerr/slotwatch/internal/server"
	"github.com/jpalmerr/slotwatch/internal/session"
	"github.com/jpalmerr/slotwatch/internal/store"
)

const (
	defaultWorkers = 1

	// eventBuffer is the capacity of the channel between workers and the
	// goroutine feeding the status store and callbacks.
	eventBuffer = 100
)

// Watcher runs concurrent probe workers against a gated resource until one
// of them gets through.
//
// A Watcher is created with [New] and started with [Watcher.Run]:
//
//	w, err := slotwatch.New(
//	    slotwatch.WithTarget(target),
//	    slotwatch.WithDriver(driver),
//	    slotwatch.WithSender(sender),
//	    slotwatch.WithCredentials(user, pass),
//	    slotwatch.WithLoginForm("Email", "Password", submitURL),
//	    slotwatch.WithMessage(msg),
//	    slotwatch.WithWorkers(3),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	outcome, err := w.Run(ctx)
type Watcher struct {
	target          Target
	driver          Driver
	sender          Sender
	workers         int
	probePolicy     retry.Policy
	loginPolicy     retry.Policy
	dryRun          bool
	shutdown        ShutdownPolicy
	credentials     session.Credentials
	form            session.Form
	message         Message
	setup           SetupAction
	statusPort      int
	logger          *slog.Logger
	statusCallbacks []func(StatusEvent)

	mu    sync.RWMutex
	phase Phase
}

// New creates a [Watcher] with the given options.
//
// [WithTarget], [WithDriver], [WithCredentials] and [WithLoginForm] are
// required, as are [WithSender] and [WithMessage] unless [WithDryRun] is
// enabled. Other options have defaults:
//   - Workers: 1
//   - Attempt budget: [Unlimited]
//   - Login attempts: [Unlimited]
//   - Probe delay: none
//   - Shutdown policy: [AwaitShutdown]
//   - Status server: disabled
func New(opts ...Option) (*Watcher, error) {
	cfg := &watcherConfig{
		workers:       defaultWorkers,
		attempts:      Unlimited,
		loginAttempts: Unlimited,
		shutdown:      AwaitShutdown,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.target == nil {
		return nil, errors.New("a target is required")
	}
	if cfg.driver == nil {
		return nil, errors.New("a driver is required")
	}
	if cfg.username == "" {
		return nil, errors.New("credentials are required")
	}
	if cfg.usernameField == "" {
		return nil, errors.New("a login form is required")
	}
	if !cfg.dryRun {
		if cfg.sender == nil {
			return nil, errors.New("a sender is required unless dry run is enabled")
		}
		if err := cfg.message.Validate(); err != nil {
			return nil, fmt.Errorf("a message is required unless dry run is enabled: %w", err)
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	target := *cfg.target
	setup := cfg.setup
	if setup == nil {
		setup = navigateSetup(target.setupURL)
	}

	return &Watcher{
		target:      target,
		driver:      cfg.driver,
		sender:      cfg.sender,
		workers:     cfg.workers,
		probePolicy: retry.Policy{MaxAttempts: cfg.attempts, Delay: cfg.probeDelay},
		loginPolicy: retry.Policy{MaxAttempts: cfg.loginAttempts, Delay: cfg.loginDelay},
		dryRun:      cfg.dryRun,
		shutdown:    cfg.shutdown,
		credentials: session.Credentials{Username: cfg.username, Password: cfg.password},
		form: session.Form{
			UsernameField: cfg.usernameField,
			PasswordField: cfg.passwordField,
			Submit:        cfg.submitURL,
		},
		message:         cfg.message,
		setup:           setup,
		statusPort:      cfg.statusPort,
		logger:          logger,
		statusCallbacks: cfg.statusCallbacks,
	}, nil
}

// Run executes one watch: open a page per worker, log in on the first page,
// run the setup action on every page, then probe from all pages at once until
// every worker stops.
//
// Setup is a barrier: no worker probes before setup finished on every page.
// Workers fail independently; a worker that errors or panics is reported as
// cancelled and never stops its siblings.
//
// Once all workers stopped, Run returns under [ExitOnCompletion]. Under
// [AwaitShutdown] it stays in [PhaseAwaitingShutdown] with the winning page
// open until ctx is cancelled.
//
// Errors before probing (page creation, login bound, setup, cancellation) are
// returned. Reaching the target, or not reaching it, is reported through the
// [Outcome].
//
// Run must not be called concurrently on the same Watcher.
func (w *Watcher) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{RunID: uuid.NewString()}
	ctx = log.ContextAttrs(ctx, slog.String("run_id", out.RunID))

	st := store.NewMemoryStore()
	w.enterPhase(ctx, st, &out, PhaseStarting)
	w.logger.InfoContext(ctx, "slotwatch starting",
		"workers", w.workers,
		"target", w.target.bookingURL,
		"attempt_budget", w.probePolicy.String(),
		"dry_run", w.dryRun,
		"shutdown", w.shutdown.String(),
	)

	if err := ctx.Err(); err != nil {
		return out, err
	}

	if w.statusPort > 0 {
		srvCtx, stopServer := context.WithCancel(ctx)
		defer stopServer()

		srv := server.NewServer(st, w.statusPort, w.logger)
		if err := srv.Start(srvCtx); err != nil {
			return out, fmt.Errorf("failed to start status server: %w", err)
		}
	}

	pages, err := w.openPages(ctx)
	if err != nil {
		return out, err
	}

	w.enterPhase(ctx, st, &out, PhaseAuthenticating)
	establisher := session.NewEstablisher(session.Config{
		LoginURL:    w.target.loginURL,
		LandingURL:  w.target.landingURL,
		Credentials: w.credentials,
		Form:        w.form,
		Policy:      w.loginPolicy,
	}, w.logger)
	sess, err := establisher.Establish(ctx, pages[0])
	if err != nil {
		w.closePages(ctx, pages)
		return out, fmt.Errorf("failed to establish session: %w", err)
	}
	out.Session = toSession(sess)

	w.enterPhase(ctx, st, &out, PhaseSetup)
	if err := w.runSetup(ctx, pages); err != nil {
		w.closePages(ctx, pages)
		return out, fmt.Errorf("setup failed: %w", err)
	}

	w.enterPhase(ctx, st, &out, PhaseProbing)
	claims := claim.New()
	guard := notify.NewGuard(w.sender, w.dryRun, w.logger)
	results := w.probe(ctx, pages, claims, guard, st)

	out.Results = make([]WorkerResult, len(results))
	for i, r := range results {
		out.Results[i] = toWorkerResult(r)
		if r.State == probe.StateSucceeded {
			out.WinnerPage = pages[i]
		}
	}
	out.Winner, _ = claims.Winner()
	out.Notified = guard.Sent()

	w.logger.InfoContext(ctx, "all workers stopped",
		"winner", out.Winner,
		"notified", out.Notified,
	)

	if w.shutdown == AwaitShutdown && ctx.Err() == nil {
		w.enterPhase(ctx, st, &out, PhaseAwaitingShutdown)
		w.logger.InfoContext(ctx, "standing by until shutdown")
		<-ctx.Done()

		if out.WinnerPage != nil {
			if err := out.WinnerPage.Close(); err != nil {
				w.logger.WarnContext(ctx, "closing winning page failed", "error", err)
			}
		}
	}

	w.enterPhase(ctx, st, &out, PhaseCompleted)
	return out, nil
}

// Phase returns the phase of the current or last run.
func (w *Watcher) Phase() Phase {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.phase
}

// Workers returns the configured worker count.
func (w *Watcher) Workers() int {
	return w.workers
}

// Target returns the watched target.
func (w *Watcher) Target() Target {
	return w.target
}

func (w *Watcher) enterPhase(ctx context.Context, st store.Store, out *Outcome, phase Phase) {
	out.Phase = phase
	st.SetPhase(string(phase), out.Winner)

	w.mu.Lock()
	w.phase = phase
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "phase changed", "phase", phase.String())
}

// openPages creates one page per worker, in worker order. On failure every
// page created so far is closed.
func (w *Watcher) openPages(ctx context.Context) ([]Page, error) {
	pages := make([]Page, 0, w.workers)
	for i := 0; i < w.workers; i++ {
		page, err := w.driver.NewPage(ctx)
		if err != nil {
			w.closePages(ctx, pages)
			return nil, fmt.Errorf("failed to create page %d: %w", i+1, err)
		}
		pages = append(pages, page)
	}
	w.logger.DebugContext(ctx, "pages created", "count", len(pages))
	return pages, nil
}

func (w *Watcher) closePages(ctx context.Context, pages []Page) {
	for _, p := range pages {
		if err := p.Close(); err != nil {
			w.logger.WarnContext(ctx, "closing page failed", "page", p.Name(), "error", err)
		}
	}
}

// runSetup runs the setup action on every page concurrently and returns once
// all of them finished. The first error cancels the others.
func (w *Watcher) runSetup(ctx context.Context, pages []Page) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, page := range pages {
		g.Go(func() error {
			if err := w.setup(gctx, page); err != nil {
				return fmt.Errorf("page %s: %w", page.Name(), err)
			}
			w.logger.DebugContext(gctx, "setup finished", "page", page.Name())
			return nil
		})
	}
	return g.Wait()
}

// probe runs one worker per page and waits for all of them.
func (w *Watcher) probe(ctx context.Context, pages []Page, claims *claim.Coordinator, guard *notify.Guard, st store.Store) []probe.Result {
	events := make(chan probe.Event, eventBuffer)

	var consumer sync.WaitGroup
	consumer.Add(1)
	go func() {
		defer consumer.Done()
		for e := range events {
			st.Update(toWorkerStatus(e))

			if len(w.statusCallbacks) > 0 {
				pub := toStatusEvent(e)
				for _, cb := range w.statusCallbacks {
					invokeCallbackSafe(cb, pub, w.logger)
				}
			}
		}
	}()

	results := make([]probe.Result, len(pages))
	var g errgroup.Group
	for i, page := range pages {
		worker := probe.NewWorker(probe.Config{
			ID:        fmt.Sprintf("worker-%d", i+1),
			TargetURL: w.target.bookingURL,
			Policy:    w.probePolicy,
			Message:   w.message,
			Observer:  func(e probe.Event) { events <- e },
		}, page, claims, guard, w.logger)

		g.Go(func() error {
			results[i] = worker.Run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	close(events)
	consumer.Wait()
	return results
}

func toWorkerStatus(e probe.Event) store.WorkerStatus {
	var errStr *string
	if e.Err != nil {
		s := e.Err.Error()
		errStr = &s
	}
	return store.WorkerStatus{
		Name:      e.Worker,
		State:     e.State.String(),
		Attempts:  e.Attempts,
		URL:       e.URL,
		UpdatedAt: e.At,
		Error:     errStr,
	}
}

// navigateSetup returns the default setup action: visit url, or do nothing
// when url is empty.
func navigateSetup(url string) SetupAction {
	return func(ctx context.Context, page Page) error {
		if url == "" {
			return nil
		}
		return page.Navigate(ctx, url)
	}
}

// invokeCallbackSafe calls a status callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(StatusEvent), event StatusEvent, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("status callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"worker", event.Worker,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(event)
}
