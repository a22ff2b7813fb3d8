package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
dry_run: true
target:
  login_url: https://slots.example.com/Home?ReturnUrl=%2fServices
  landing_url: https://slots.example.com/UserArea
  booking_url: https://slots.example.com/Services/Booking/489
login:
  username: user@example.com
  password: hunter2
  submit_url: https://slots.example.com/Home/Login
`

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if !cfg.Attempts.Unlimited() {
		t.Errorf("Attempts = %v, want unlimited", cfg.Attempts)
	}
	if cfg.Shutdown != ShutdownAwait {
		t.Errorf("Shutdown = %q, want %q", cfg.Shutdown, ShutdownAwait)
	}
	if !cfg.Login.MaxAttempts.Unlimited() {
		t.Errorf("Login.MaxAttempts = %v, want unlimited", cfg.Login.MaxAttempts)
	}
	if cfg.Login.UsernameField != "Email" || cfg.Login.PasswordField != "Password" {
		t.Errorf("login fields = %q/%q, want Email/Password", cfg.Login.UsernameField, cfg.Login.PasswordField)
	}
	if cfg.Notify.Subject != "BOOKING PAGE REACHED" || cfg.Notify.Body != "GO GO GO" {
		t.Errorf("notify = %q/%q, want defaults", cfg.Notify.Subject, cfg.Notify.Body)
	}
	if cfg.ProbeDelay.Duration() != 0 {
		t.Errorf("ProbeDelay = %v, want 0", cfg.ProbeDelay.Duration())
	}
	if cfg.StatusPort != 0 {
		t.Errorf("StatusPort = %d, want 0", cfg.StatusPort)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
workers: 3
attempts: 2
dry_run: false
shutdown: exit
probe_delay: 250ms
request_timeout: 15s
status_port: 8080
target:
  login_url: https://slots.example.com/Home?ReturnUrl=%2fServices
  landing_url: https://slots.example.com/UserArea
  setup_url: https://slots.example.com/Language/ChangeLanguage?lang=2
  booking_url: https://slots.example.com/Services/Booking/489
login:
  username: user@example.com
  password: hunter2
  username_field: login_email
  password_field: login_password
  submit_url: https://slots.example.com/Home/Login
  max_attempts: 10
  retry_delay: 2s
notify:
  from: slotwatch@example.com
  to: ops@example.com
  subject: Slot open
  body: Book it now
  sendgrid_api_key: SG.key
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.Attempts.Int() != 2 {
		t.Errorf("Attempts = %d, want 2", cfg.Attempts.Int())
	}
	if cfg.DryRun {
		t.Error("DryRun = true, want false")
	}
	if cfg.Shutdown != ShutdownExit {
		t.Errorf("Shutdown = %q, want %q", cfg.Shutdown, ShutdownExit)
	}
	if cfg.ProbeDelay.Duration() != 250*time.Millisecond {
		t.Errorf("ProbeDelay = %v, want 250ms", cfg.ProbeDelay.Duration())
	}
	if cfg.RequestTimeout.Duration() != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout.Duration())
	}
	if cfg.StatusPort != 8080 {
		t.Errorf("StatusPort = %d, want 8080", cfg.StatusPort)
	}
	if cfg.Target.SetupURL != "https://slots.example.com/Language/ChangeLanguage?lang=2" {
		t.Errorf("Target.SetupURL = %q", cfg.Target.SetupURL)
	}
	if cfg.Login.UsernameField != "login_email" {
		t.Errorf("Login.UsernameField = %q, want %q", cfg.Login.UsernameField, "login_email")
	}
	if cfg.Login.MaxAttempts.Int() != 10 {
		t.Errorf("Login.MaxAttempts = %d, want 10", cfg.Login.MaxAttempts.Int())
	}
	if cfg.Login.RetryDelay.Duration() != 2*time.Second {
		t.Errorf("Login.RetryDelay = %v, want 2s", cfg.Login.RetryDelay.Duration())
	}
	if cfg.Notify.Subject != "Slot open" {
		t.Errorf("Notify.Subject = %q, want %q", cfg.Notify.Subject, "Slot open")
	}
	if cfg.Notify.SendGridAPIKey != "SG.key" {
		t.Errorf("Notify.SendGridAPIKey = %q, want %q", cfg.Notify.SendGridAPIKey, "SG.key")
	}
}

func TestBudget_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"positive", "5", 5, false},
		{"one", "1", 1, false},
		{"unlimited", "unlimited", -1, false},
		{"unlimited mixed case", "Unlimited", -1, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"word", "lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(minimalYAML + "attempts: " + tt.input + "\n"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Attempts.Int() != tt.want {
				t.Errorf("Attempts = %d, want %d", cfg.Attempts.Int(), tt.want)
			}
		})
	}
}

func TestBudget_String(t *testing.T) {
	if got := Budget(3).String(); got != "3" {
		t.Errorf("Budget(3).String() = %q, want %q", got, "3")
	}
	if got := budgetUnlimited.String(); got != "unlimited" {
		t.Errorf("unlimited String() = %q, want %q", got, "unlimited")
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"zero", "0s", 0, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(minimalYAML + "probe_delay: " + tt.input + "\n"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.ProbeDelay.Duration() != tt.want {
				t.Errorf("ProbeDelay = %v, want %v", cfg.ProbeDelay.Duration(), tt.want)
			}
		})
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "negative workers",
			yaml:        minimalYAML + "workers: -2\n",
			wantErrLike: "workers must be at least 1",
		},
		{
			name:        "unknown shutdown policy",
			yaml:        minimalYAML + "shutdown: reboot\n",
			wantErrLike: "shutdown must be",
		},
		{
			name:        "negative probe delay",
			yaml:        minimalYAML + "probe_delay: -1s\n",
			wantErrLike: "probe_delay cannot be negative",
		},
		{
			name:        "negative request timeout",
			yaml:        minimalYAML + "request_timeout: -1s\n",
			wantErrLike: "request_timeout cannot be negative",
		},
		{
			name:        "status port out of range",
			yaml:        minimalYAML + "status_port: 70000\n",
			wantErrLike: "status_port must be between",
		},
		{
			name:        "missing booking url",
			yaml:        strings.Replace(minimalYAML, "  booking_url: https://slots.example.com/Services/Booking/489\n", "", 1),
			wantErrLike: "target.booking_url is required",
		},
		{
			name:        "login url without scheme",
			yaml:        strings.Replace(minimalYAML, "login_url: https://", "login_url: ", 1),
			wantErrLike: "target.login_url: url must have a scheme",
		},
		{
			name:        "submit url with ftp scheme",
			yaml:        strings.Replace(minimalYAML, "submit_url: https://", "submit_url: ftp://", 1),
			wantErrLike: "login.submit_url: url scheme must be http or https",
		},
		{
			name:        "missing username",
			yaml:        strings.Replace(minimalYAML, "  username: user@example.com\n", "", 1),
			wantErrLike: "login.username is required",
		},
		{
			name:        "live run without sender address",
			yaml:        strings.Replace(minimalYAML, "dry_run: true", "dry_run: false", 1),
			wantErrLike: "notify.from is required",
		},
		{
			name: "live run without api key",
			yaml: strings.Replace(minimalYAML, "dry_run: true", "dry_run: false", 1) + `
notify:
  from: a@example.com
  to: b@example.com
`,
			wantErrLike: "notify.sendgrid_api_key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("Parse() error = %v, want error containing %q", err, tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("workers: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("Parse() error = %v, want YAML parse error", err)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	// t.Setenv auto-restores after test
	t.Setenv("TEST_SITE_HOST", "slots.test.com")
	t.Setenv("TEST_SITE_USERNAME", "me@test.com")
	t.Setenv("TEST_SITE_PASSWORD", "s3cret")

	yaml := `
dry_run: true
target:
  login_url: https://${TEST_SITE_HOST}/Home
  landing_url: https://${TEST_SITE_HOST}/UserArea
  booking_url: https://${TEST_SITE_HOST}/Services/Booking/489
login:
  username: ${TEST_SITE_USERNAME}
  password: ${TEST_SITE_PASSWORD}
  submit_url: https://${TEST_SITE_HOST}/Home/Login
notify:
  sendgrid_api_key: ${TEST_SENDGRID_KEY_UNSET:-}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Target.BookingURL != "https://slots.test.com/Services/Booking/489" {
		t.Errorf("Target.BookingURL = %q", cfg.Target.BookingURL)
	}
	if cfg.Login.Username != "me@test.com" || cfg.Login.Password != "s3cret" {
		t.Errorf("credentials = %q/%q", cfg.Login.Username, cfg.Login.Password)
	}
	if cfg.Notify.SendGridAPIKey != "" {
		t.Errorf("Notify.SendGridAPIKey = %q, want empty default", cfg.Notify.SendGridAPIKey)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := strings.Replace(minimalYAML, "password: hunter2", "password: ${TEST_SITE_PASSWORD_MISSING}", 1)

	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "login.password") {
		t.Errorf("Parse() error = %v, want field name in error", err)
	}
	if !strings.Contains(err.Error(), "TEST_SITE_PASSWORD_MISSING") {
		t.Errorf("Parse() error = %v, want variable name in error", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slotwatch.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Login.Username != "user@example.com" {
		t.Errorf("Login.Username = %q, want %q", cfg.Login.Username, "user@example.com")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v", err)
	}
}
