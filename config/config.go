// Package config provides YAML configuration parsing for slotwatch.
//
// This package enables running slotwatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	workers: 3
//	attempts: unlimited
//	dry_run: true
//
//	target:
//	  login_url: https://example.org/Home?ReturnUrl=%2fServices
//	  landing_url: https://example.org/UserArea
//	  booking_url: https://example.org/Services/Booking/489
//
//	login:
//	  username: ${SITE_USERNAME}
//	  password: ${SITE_PASSWORD}
//	  submit_url: https://example.org/Home/Login
//
//	notify:
//	  from: ${EMAIL_FROM}
//	  to: ${EMAIL_TO}
//	  sendgrid_api_key: ${SENDGRID_API_KEY:-}
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultUsernameField = "Email"
	defaultPasswordField = "Password"
	defaultSubject       = "BOOKING PAGE REACHED"
	defaultBody          = "GO GO GO"
)

// Config is the root configuration structure for slotwatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Workers is the number of concurrent probing pages. Defaults to 1.
	Workers int `yaml:"workers"`

	// Attempts is the per-worker probe budget: a positive integer or
	// "unlimited". Defaults to unlimited.
	Attempts Budget `yaml:"attempts"`

	// DryRun suppresses the real notification send.
	DryRun bool `yaml:"dry_run"`

	// Shutdown is "await" (default) or "exit".
	Shutdown Shutdown `yaml:"shutdown"`

	// ProbeDelay is the pause between failed probes. Defaults to none.
	ProbeDelay Duration `yaml:"probe_delay"`

	// RequestTimeout bounds each HTTP request. 0 means no timeout.
	RequestTimeout Duration `yaml:"request_timeout"`

	// StatusPort serves the status API when non-zero.
	StatusPort int `yaml:"status_port"`

	Target TargetConfig `yaml:"target"`
	Login  LoginConfig  `yaml:"login"`
	Notify NotifyConfig `yaml:"notify"`
}

// TargetConfig locates the gated resource.
//
// All URLs support environment variable substitution: ${VAR} or ${VAR:-default}
type TargetConfig struct {
	LoginURL   string `yaml:"login_url"`
	LandingURL string `yaml:"landing_url"`

	// SetupURL, if set, is visited once by every page before probing.
	SetupURL string `yaml:"setup_url"`

	// BookingURL is the location a probe must land on to count as success.
	BookingURL string `yaml:"booking_url"`
}

// LoginConfig holds credentials and the shape of the login form.
type LoginConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// UsernameField defaults to "Email".
	UsernameField string `yaml:"username_field"`

	// PasswordField defaults to "Password".
	PasswordField string `yaml:"password_field"`

	// SubmitURL is the form action the credentials are posted to.
	SubmitURL string `yaml:"submit_url"`

	// MaxAttempts bounds the login loop. Defaults to unlimited.
	MaxAttempts Budget `yaml:"max_attempts"`

	// RetryDelay is the pause between failed login cycles.
	RetryDelay Duration `yaml:"retry_delay"`
}

// NotifyConfig describes the alert and how it is delivered.
type NotifyConfig struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`

	// SendGridAPIKey is required unless dry_run is set.
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// unlimitedBudget is the YAML spelling of an unbounded budget.
const unlimitedBudget = "unlimited"

// Budget is an attempt count that is either positive or unlimited.
//
// The zero value means "not set"; [Parse] replaces it with unlimited.
type Budget int

// budgetUnlimited mirrors slotwatch.Unlimited.
const budgetUnlimited Budget = -1

// UnmarshalYAML accepts a positive integer or "unlimited".
func (b *Budget) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	if strings.EqualFold(strings.TrimSpace(s), unlimitedBudget) {
		*b = budgetUnlimited
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid attempt budget %q (expected a positive integer or %q)", s, unlimitedBudget)
	}
	if n < 1 {
		return fmt.Errorf("attempt budget must be positive or %q, got %d", unlimitedBudget, n)
	}

	*b = Budget(n)
	return nil
}

// Unlimited reports whether the budget has no bound.
func (b Budget) Unlimited() bool {
	return b == budgetUnlimited
}

// Int returns the budget as slotwatch expects it, with -1 for unlimited.
func (b Budget) Int() int {
	return int(b)
}

// String returns the YAML spelling of the budget.
func (b Budget) String() string {
	if b.Unlimited() {
		return unlimitedBudget
	}
	return strconv.Itoa(int(b))
}

// Shutdown names what happens after every worker stopped.
type Shutdown string

const (
	ShutdownAwait Shutdown = "await"
	ShutdownExit  Shutdown = "exit"
)

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in every string under target, login
// and notify. Defaults are applied before validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Attempts == 0 {
		c.Attempts = budgetUnlimited
	}
	if c.Shutdown == "" {
		c.Shutdown = ShutdownAwait
	}
	if c.Login.UsernameField == "" {
		c.Login.UsernameField = defaultUsernameField
	}
	if c.Login.PasswordField == "" {
		c.Login.PasswordField = defaultPasswordField
	}
	if c.Login.MaxAttempts == 0 {
		c.Login.MaxAttempts = budgetUnlimited
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = defaultSubject
	}
	if c.Notify.Body == "" {
		c.Notify.Body = defaultBody
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"target.login_url", &c.Target.LoginURL},
		{"target.landing_url", &c.Target.LandingURL},
		{"target.setup_url", &c.Target.SetupURL},
		{"target.booking_url", &c.Target.BookingURL},
		{"login.username", &c.Login.Username},
		{"login.password", &c.Login.Password},
		{"login.username_field", &c.Login.UsernameField},
		{"login.password_field", &c.Login.PasswordField},
		{"login.submit_url", &c.Login.SubmitURL},
		{"notify.from", &c.Notify.From},
		{"notify.to", &c.Notify.To},
		{"notify.subject", &c.Notify.Subject},
		{"notify.body", &c.Notify.Body},
		{"notify.sendgrid_api_key", &c.Notify.SendGridAPIKey},
	}
	for _, f := range fields {
		expanded, err := expandEnvVars(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Shutdown != ShutdownAwait && c.Shutdown != ShutdownExit {
		return fmt.Errorf("shutdown must be %q or %q, got %q", ShutdownAwait, ShutdownExit, c.Shutdown)
	}
	if c.ProbeDelay.Duration() < 0 {
		return fmt.Errorf("probe_delay cannot be negative, got %s", c.ProbeDelay.Duration())
	}
	if c.RequestTimeout.Duration() < 0 {
		return fmt.Errorf("request_timeout cannot be negative, got %s", c.RequestTimeout.Duration())
	}
	if c.Login.RetryDelay.Duration() < 0 {
		return fmt.Errorf("login.retry_delay cannot be negative, got %s", c.Login.RetryDelay.Duration())
	}
	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return fmt.Errorf("status_port must be between 0 and 65535, got %d", c.StatusPort)
	}

	urls := []struct {
		name     string
		value    string
		required bool
	}{
		{"target.login_url", c.Target.LoginURL, true},
		{"target.landing_url", c.Target.LandingURL, true},
		{"target.booking_url", c.Target.BookingURL, true},
		{"target.setup_url", c.Target.SetupURL, false},
		{"login.submit_url", c.Login.SubmitURL, true},
	}
	for _, u := range urls {
		if err := validateURL(u.name, u.value, u.required); err != nil {
			return err
		}
	}

	if c.Login.Username == "" {
		return errors.New("login.username is required")
	}

	if !c.DryRun {
		if c.Notify.From == "" {
			return errors.New("notify.from is required unless dry_run is set")
		}
		if c.Notify.To == "" {
			return errors.New("notify.to is required unless dry_run is set")
		}
		if c.Notify.SendGridAPIKey == "" {
			return errors.New("notify.sendgrid_api_key is required unless dry_run is set")
		}
	}

	return nil
}

func validateURL(name, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}

	parsedURL, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", name, err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("%s: url must have a scheme (http:// or https://)", name)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", name, parsedURL.Scheme)
	}
	return nil
}
