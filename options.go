package slotwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SetupAction runs once on every page after login and before probing.
type SetupAction func(ctx context.Context, page Page) error

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	target          *Target
	driver          Driver
	sender          Sender
	workers         int
	attempts        int
	loginAttempts   int
	loginDelay      time.Duration
	probeDelay      time.Duration
	dryRun          bool
	shutdown        ShutdownPolicy
	username        string
	password        string
	usernameField   string
	passwordField   string
	submitURL       string
	message         Message
	setup           SetupAction
	statusPort      int
	logger          *slog.Logger
	statusCallbacks []func(StatusEvent)
}

// Option is a function that configures a [Watcher] during construction.
//
// Options return an error if validation fails.
type Option func(*watcherConfig) error

// WithTarget sets the resource to watch. Required.
func WithTarget(t Target) Option {
	return func(cfg *watcherConfig) error {
		if t.bookingURL == "" {
			return errors.New("target must be created with NewTarget")
		}
		cfg.target = &t
		return nil
	}
}

// WithDriver sets the browser driver pages are created from. Required.
//
// The Watcher does not close the driver.
func WithDriver(d Driver) Option {
	return func(cfg *watcherConfig) error {
		if d == nil {
			return errors.New("driver cannot be nil")
		}
		cfg.driver = d
		return nil
	}
}

// WithSender sets the notification transport. Required unless
// [WithDryRun] is enabled.
func WithSender(s Sender) Option {
	return func(cfg *watcherConfig) error {
		if s == nil {
			return errors.New("sender cannot be nil")
		}
		cfg.sender = s
		return nil
	}
}

// WithWorkers sets how many pages probe the target concurrently.
// Defaults to 1.
func WithWorkers(n int) Option {
	return func(cfg *watcherConfig) error {
		if n < 1 {
			return fmt.Errorf("worker count must be at least 1, got %d", n)
		}
		cfg.workers = n
		return nil
	}
}

// WithAttemptBudget sets how many probes each worker performs before giving
// up. Pass [Unlimited] (the default) to probe until success or shutdown.
func WithAttemptBudget(n int) Option {
	return func(cfg *watcherConfig) error {
		if n != Unlimited && n < 1 {
			return fmt.Errorf("attempt budget must be positive or Unlimited, got %d", n)
		}
		cfg.attempts = n
		return nil
	}
}

// WithLoginAttempts bounds the login loop. Defaults to [Unlimited]: login is
// retried until it succeeds or the run is cancelled.
func WithLoginAttempts(n int) Option {
	return func(cfg *watcherConfig) error {
		if n != Unlimited && n < 1 {
			return fmt.Errorf("login attempts must be positive or Unlimited, got %d", n)
		}
		cfg.loginAttempts = n
		return nil
	}
}

// WithLoginRetryDelay sets the pause between failed login cycles.
// Defaults to no pause.
func WithLoginRetryDelay(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d < 0 {
			return errors.New("login retry delay cannot be negative")
		}
		cfg.loginDelay = d
		return nil
	}
}

// WithProbeDelay sets the pause between failed probes of one worker.
// Defaults to no pause: failed probes are retried immediately.
func WithProbeDelay(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d < 0 {
			return errors.New("probe delay cannot be negative")
		}
		cfg.probeDelay = d
		return nil
	}
}

// WithDryRun suppresses the real notification send. The guard still marks
// itself sent, so the run behaves exactly as it would otherwise.
func WithDryRun(dryRun bool) Option {
	return func(cfg *watcherConfig) error {
		cfg.dryRun = dryRun
		return nil
	}
}

// WithShutdownPolicy decides whether Run waits for cancellation after the
// workers stop. Defaults to [AwaitShutdown].
func WithShutdownPolicy(p ShutdownPolicy) Option {
	return func(cfg *watcherConfig) error {
		if p != AwaitShutdown && p != ExitOnCompletion {
			return fmt.Errorf("unknown shutdown policy %d", p)
		}
		cfg.shutdown = p
		return nil
	}
}

// WithCredentials sets the identity and secret typed into the login form.
func WithCredentials(username, password string) Option {
	return func(cfg *watcherConfig) error {
		if username == "" {
			return errors.New("username cannot be empty")
		}
		cfg.username = username
		cfg.password = password
		return nil
	}
}

// WithLoginForm names the login form fields and the control that submits
// it. For the HTTP driver the submit control is the form's action URL.
func WithLoginForm(usernameField, passwordField, submit string) Option {
	return func(cfg *watcherConfig) error {
		if usernameField == "" || passwordField == "" || submit == "" {
			return errors.New("login form fields and submit control cannot be empty")
		}
		cfg.usernameField = usernameField
		cfg.passwordField = passwordField
		cfg.submitURL = submit
		return nil
	}
}

// WithMessage sets the notification sent by the winning worker.
func WithMessage(msg Message) Option {
	return func(cfg *watcherConfig) error {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
		cfg.message = msg
		return nil
	}
}

// WithSetupAction replaces the setup action run on every page before
// probing. The default navigates to [Target.SetupURL] when one is set.
func WithSetupAction(action SetupAction) Option {
	return func(cfg *watcherConfig) error {
		if action == nil {
			return errors.New("setup action cannot be nil")
		}
		cfg.setup = action
		return nil
	}
}

// WithStatusPort serves the status API on port for the duration of the run.
// Disabled by default.
func WithStatusPort(port int) Option {
	return func(cfg *watcherConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.statusPort = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStatusCallback registers a function called after every probe and on
// every worker state change.
//
// Callbacks run on a single goroutine in registration order and must not
// block; a slow callback delays status updates for every worker. Panics are
// recovered and logged.
//
// Nil callbacks are silently ignored.
func WithStatusCallback(cb func(StatusEvent)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return nil
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}
