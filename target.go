package slotwatch

import (
	"errors"
	"fmt"
	"net/url"
)

// Target describes the gated resource being watched.
//
// Target is immutable after creation via [NewTarget]. The booking URL is the
// location a probe must land on to count as success; the login and landing
// URLs drive session establishment.
type Target struct {
	bookingURL string
	loginURL   string
	landingURL string
	setupURL   string
}

// BookingURL returns the location every probe navigates to.
func (t Target) BookingURL() string {
	return t.bookingURL
}

// LoginURL returns the login page location.
func (t Target) LoginURL() string {
	return t.loginURL
}

// LandingURL returns the location that proves a session is authenticated.
func (t Target) LandingURL() string {
	return t.landingURL
}

// SetupURL returns the location visited by the default setup action, or ""
// if none was configured.
func (t Target) SetupURL() string {
	return t.setupURL
}

// targetConfig holds mutable state during target construction.
type targetConfig struct {
	setupURL string
}

// TargetOption configures a [Target] during construction.
type TargetOption func(*targetConfig) error

// WithSetupURL sets a location every page visits once before probing
// starts, for example a language switch.
func WithSetupURL(rawURL string) TargetOption {
	return func(cfg *targetConfig) error {
		if err := validateURL(rawURL); err != nil {
			return fmt.Errorf("setup URL: %w", err)
		}
		cfg.setupURL = rawURL
		return nil
	}
}

// NewTarget creates a [Target].
//
// All URLs must be absolute with an http or https scheme. The booking URL is
// compared verbatim with the page location after each probe, so it should be
// written exactly as the site reports it after redirects.
//
// Example:
//
//	target, err := slotwatch.NewTarget(
//	    "https://example.org/Services/Booking/489",
//	    "https://example.org/Home?ReturnUrl=%2fServices",
//	    "https://example.org/UserArea",
//	)
func NewTarget(bookingURL, loginURL, landingURL string, opts ...TargetOption) (Target, error) {
	for _, u := range []struct{ name, value string }{
		{"booking URL", bookingURL},
		{"login URL", loginURL},
		{"landing URL", landingURL},
	} {
		if err := validateURL(u.value); err != nil {
			return Target{}, fmt.Errorf("%s: %w", u.name, err)
		}
	}

	cfg := &targetConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Target{}, err
		}
	}

	return Target{
		bookingURL: bookingURL,
		loginURL:   loginURL,
		landingURL: landingURL,
		setupURL:   cfg.setupURL,
	}, nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL: " + err.Error())
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return errors.New("URL must have a host")
	}
	return nil
}
