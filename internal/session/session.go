// Package session obtains the authenticated context every probe depends on.
//
// [Establisher.Establish] loops until the login page lands on the
// authenticated landing location. Any failure along the way (navigation
// errors, rejected credentials, a slow redirect) is treated the same way:
// log it and try the whole cycle again. The loop is unbounded unless a
// bounded [retry.Policy] is injected.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/slotwatch/internal/browser"
	"github.com/jpalmerr/slotwatch/internal/retry"
)

// ErrBudgetExhausted is returned when an injected attempt bound runs out
// before the landing location is reached.
var ErrBudgetExhausted = errors.New("login attempt budget exhausted")

// Session is an authenticated context. It is immutable once returned.
type Session struct {
	// ID identifies the session in logs and status output.
	ID string

	// LandingURL is the location that proved authentication.
	LandingURL string

	// Attempts is the number of login cycles it took. Reuse of an existing
	// session counts as one attempt.
	Attempts int

	// Reused is true if no credentials had to be submitted.
	Reused bool

	// EstablishedAt is when authentication was confirmed.
	EstablishedAt time.Time
}

// Credentials are the identity and secret typed into the login form.
type Credentials struct {
	Username string
	Password string
}

// Form describes where credentials are typed and how they are submitted.
type Form struct {
	// UsernameField and PasswordField are the form field names.
	UsernameField string
	PasswordField string

	// Submit is the control clicked to submit the form.
	Submit string
}

// Config holds everything an Establisher needs.
type Config struct {
	LoginURL    string
	LandingURL  string
	Credentials Credentials
	Form        Form

	// Policy bounds the number of login cycles. The zero value is treated
	// as unlimited.
	Policy retry.Policy
}

// Establisher runs the login loop on a single page.
type Establisher struct {
	cfg    Config
	logger *slog.Logger
}

// NewEstablisher creates an Establisher. A nil logger uses slog.Default().
func NewEstablisher(cfg Config, logger *slog.Logger) *Establisher {
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy.MaxAttempts = retry.Unlimited
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Establisher{cfg: cfg, logger: logger}
}

// Establish logs in on page and returns the resulting Session.
//
// It only returns an error if the injected policy is exhausted
// ([ErrBudgetExhausted]) or ctx is done.
func (e *Establisher) Establish(ctx context.Context, page browser.Page) (Session, error) {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return Session{}, err
		}
		if e.cfg.Policy.Exhausted(attempts) {
			return Session{}, fmt.Errorf("%w after %d attempts", ErrBudgetExhausted, attempts)
		}
		attempts++

		reused, ok := e.attempt(ctx, page, attempts)
		if ok {
			s := Session{
				ID:            uuid.NewString(),
				LandingURL:    e.cfg.LandingURL,
				Attempts:      attempts,
				Reused:        reused,
				EstablishedAt: time.Now(),
			}
			e.logger.InfoContext(ctx, "login successful",
				"session_id", s.ID,
				"attempts", attempts,
				"reused", reused,
			)
			return s, nil
		}

		e.logger.InfoContext(ctx, "login unsuccessful, retrying", "attempt", attempts)
		if err := e.cfg.Policy.Wait(ctx); err != nil {
			return Session{}, err
		}
	}
}

// attempt runs one login cycle. reused reports whether an existing session
// was picked up without submitting credentials.
func (e *Establisher) attempt(ctx context.Context, page browser.Page, n int) (reused, ok bool) {
	log := e.logger.With("page", page.Name(), "attempt", n)

	log.DebugContext(ctx, "navigating to login page", "url", e.cfg.LoginURL)
	if err := page.Navigate(ctx, e.cfg.LoginURL); err != nil {
		log.WarnContext(ctx, "login navigation failed", "error", err)
		return false, false
	}
	if e.landed(page) {
		log.InfoContext(ctx, "existing session reused")
		return true, true
	}

	log.DebugContext(ctx, "no saved session, submitting credentials")
	if err := page.Type(e.cfg.Form.UsernameField, e.cfg.Credentials.Username); err != nil {
		log.WarnContext(ctx, "typing username failed", "error", err)
		return false, false
	}
	if err := page.Type(e.cfg.Form.PasswordField, e.cfg.Credentials.Password); err != nil {
		log.WarnContext(ctx, "typing password failed", "error", err)
		return false, false
	}
	if err := page.Click(ctx, e.cfg.Form.Submit); err != nil {
		log.WarnContext(ctx, "submitting login form failed", "error", err)
		return false, false
	}
	if err := page.WaitForNavigation(ctx); err != nil {
		log.WarnContext(ctx, "waiting for login navigation failed", "error", err)
		return false, false
	}

	return false, e.landed(page)
}

func (e *Establisher) landed(page browser.Page) bool {
	return page.URL() == e.cfg.LandingURL
}
