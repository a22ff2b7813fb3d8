package config

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/internal/browser"
	"github.com/jpalmerr/slotwatch/internal/notify"
)

// BuildOptions converts parsed configuration into SDK options.
//
// It creates the HTTP browser driver and, when an API key is configured, the
// SendGrid sender. The returned close function releases the driver's idle
// connections and must be called once the run is over.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]slotwatch.Option, func(), error) {
	target, err := buildTarget(cfg.Target)
	if err != nil {
		return nil, nil, err
	}

	driver, err := browser.NewHTTPDriver(browser.WithRequestTimeout(cfg.RequestTimeout.Duration()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create browser driver: %w", err)
	}

	opts := []slotwatch.Option{
		slotwatch.WithTarget(target),
		slotwatch.WithDriver(driver),
		slotwatch.WithWorkers(cfg.Workers),
		slotwatch.WithAttemptBudget(cfg.Attempts.Int()),
		slotwatch.WithLoginAttempts(cfg.Login.MaxAttempts.Int()),
		slotwatch.WithLoginRetryDelay(cfg.Login.RetryDelay.Duration()),
		slotwatch.WithProbeDelay(cfg.ProbeDelay.Duration()),
		slotwatch.WithDryRun(cfg.DryRun),
		slotwatch.WithShutdownPolicy(buildShutdownPolicy(cfg.Shutdown)),
		slotwatch.WithCredentials(cfg.Login.Username, cfg.Login.Password),
		slotwatch.WithLoginForm(cfg.Login.UsernameField, cfg.Login.PasswordField, cfg.Login.SubmitURL),
	}

	if cfg.Notify.From != "" && cfg.Notify.To != "" {
		opts = append(opts, slotwatch.WithMessage(slotwatch.Message{
			To:      cfg.Notify.To,
			From:    cfg.Notify.From,
			Subject: cfg.Notify.Subject,
			Body:    cfg.Notify.Body,
		}))
	}

	if cfg.Notify.SendGridAPIKey != "" {
		sender, err := notify.NewSendGridSender(cfg.Notify.SendGridAPIKey)
		if err != nil {
			driver.Close()
			return nil, nil, fmt.Errorf("failed to create sendgrid sender: %w", err)
		}
		opts = append(opts, slotwatch.WithSender(sender))
	}

	if cfg.StatusPort > 0 {
		opts = append(opts, slotwatch.WithStatusPort(cfg.StatusPort))
	}

	if logger != nil {
		opts = append(opts, slotwatch.WithLogger(logger))
	}

	return opts, driver.Close, nil
}

// buildTarget converts TargetConfig to an SDK Target.
func buildTarget(tc TargetConfig) (slotwatch.Target, error) {
	var opts []slotwatch.TargetOption
	if tc.SetupURL != "" {
		opts = append(opts, slotwatch.WithSetupURL(tc.SetupURL))
	}
	return slotwatch.NewTarget(tc.BookingURL, tc.LoginURL, tc.LandingURL, opts...)
}

func buildShutdownPolicy(s Shutdown) slotwatch.ShutdownPolicy {
	if s == ShutdownExit {
		return slotwatch.ExitOnCompletion
	}
	return slotwatch.AwaitShutdown
}
