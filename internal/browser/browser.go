package browser

import (
	"context"
	"errors"
)

var (
	// ErrPageClosed is returned by any Page operation after Close.
	ErrPageClosed = errors.New("page is closed")

	// ErrNoNavigation is returned by WaitForNavigation when nothing was
	// submitted since the last wait.
	ErrNoNavigation = errors.New("no navigation in progress")
)

// Page is one execution context, the equivalent of a browser tab.
//
// A Page is owned by a single goroutine; implementations need not make
// Navigate/Type/Click safe for concurrent use on the same page.
type Page interface {
	// Name identifies the page in logs.
	Name() string

	// Navigate loads url and blocks until the load completes.
	Navigate(ctx context.Context, url string) error

	// URL returns the page's current location.
	URL() string

	// Type sets a form field value for the next submission.
	Type(field, text string) error

	// Click activates control, starting a navigation without waiting for it.
	Click(ctx context.Context, control string) error

	// WaitForNavigation blocks until the navigation started by Click completes.
	WaitForNavigation(ctx context.Context) error

	// Close releases the page. Close is idempotent.
	Close() error
}

// Driver creates pages bound to a shared session.
type Driver interface {
	NewPage(ctx context.Context) (Page, error)
}
