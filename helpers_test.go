package slotwatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jpalmerr/slotwatch/internal/browser/browsertest"
)

const (
	loginURL    = "https://slots.example.com/Home?ReturnUrl=%2fServices"
	landingURL  = "https://slots.example.com/UserArea"
	servicesURL = "https://slots.example.com/Services"
	bookingURL  = "https://slots.example.com/Services/Booking/489"
	setupURL    = "https://slots.example.com/Language/ChangeLanguage?lang=2"
	submitURL   = "https://slots.example.com/Home/Login"
)

var testMessage = Message{
	To:      "ops@example.com",
	From:    "slotwatch@example.com",
	Subject: "BOOKING PAGE REACHED",
	Body:    "GO GO GO",
}

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTarget(t *testing.T, opts ...TargetOption) Target {
	t.Helper()
	target, err := NewTarget(bookingURL, loginURL, landingURL, opts...)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	return target
}

// bookingFunc decides where the k-th probe (1-based) of one page lands.
type bookingFunc func(ctx context.Context, k int) (string, error)

// siteNav fakes the gated site for one page: the login page redirects to
// the landing page (an existing session), probes are answered by onBooking,
// and every other location loads as requested.
func siteNav(onBooking bookingFunc) browsertest.NavigateFunc {
	var probes atomic.Int32
	return func(ctx context.Context, url string, _ int) (string, error) {
		switch url {
		case loginURL:
			return landingURL, nil
		case bookingURL:
			return onBooking(ctx, int(probes.Add(1)))
		default:
			return url, nil
		}
	}
}

// neverOpen bounces every probe back to the services list.
func neverOpen(context.Context, int) (string, error) {
	return servicesURL, nil
}

// openOn lets the k-th probe through.
func openOn(k int) bookingFunc {
	return func(_ context.Context, n int) (string, error) {
		if n >= k {
			return bookingURL, nil
		}
		return servicesURL, nil
	}
}

// siteDriver returns a fake driver whose i-th page answers probes with
// booking(i).
func siteDriver(booking func(i int) bookingFunc) *browsertest.Driver {
	return &browsertest.Driver{
		Factory: func(i int) *browsertest.Page {
			return browsertest.NewPage("", siteNav(booking(i)), nil)
		},
	}
}

// fakeSender records sends and optionally runs a hook on each.
type fakeSender struct {
	mu     sync.Mutex
	sent   []Message
	err    error
	onSend func()
}

func (f *fakeSender) Send(_ context.Context, msg Message) (Receipt, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if f.err != nil {
		return Receipt{}, f.err
	}
	return Receipt{StatusCode: 202}, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// requiredOptions returns the options every test watcher needs.
func requiredOptions(t *testing.T, driver Driver) []Option {
	t.Helper()
	return []Option{
		WithTarget(testTarget(t)),
		WithDriver(driver),
		WithCredentials("user@example.com", "hunter2"),
		WithLoginForm("Email", "Password", submitURL),
		WithLogger(testLogger()),
	}
}

func newTestWatcher(t *testing.T, driver Driver, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(append(requiredOptions(t, driver), opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return w
}
