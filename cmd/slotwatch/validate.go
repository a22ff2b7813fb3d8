package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/slotwatch/config"
)

// validateCmd validates a config file without starting a run.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a slotwatch configuration file without starting a run.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  slotwatch validate -c slotwatch.yaml
  slotwatch validate -c slotwatch.yaml --env-file .env`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	validateCmd.Flags().String("env-file", "", "path to a .env file (default: ./.env if present)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sender := "sendgrid"
	if cfg.DryRun {
		sender = "none (dry run)"
	}
	statusPort := "disabled"
	if cfg.StatusPort > 0 {
		statusPort = fmt.Sprintf("%d", cfg.StatusPort)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Workers:       %d\n", cfg.Workers)
	fmt.Fprintf(out, "  Attempts:      %s\n", cfg.Attempts)
	fmt.Fprintf(out, "  Login bound:   %s\n", cfg.Login.MaxAttempts)
	fmt.Fprintf(out, "  Probe delay:   %s\n", cfg.ProbeDelay.Duration())
	fmt.Fprintf(out, "  Shutdown:      %s\n", cfg.Shutdown)
	fmt.Fprintf(out, "  Notification:  %s\n", sender)
	fmt.Fprintf(out, "  Status server: %s\n", statusPort)
	fmt.Fprintf(out, "  Booking URL:   %s\n", cfg.Target.BookingURL)

	return nil
}
