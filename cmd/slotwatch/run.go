package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/slotwatch"
	"github.com/jpalmerr/slotwatch/config"
	"github.com/jpalmerr/slotwatch/internal/log"
)

// defaultEnvFile is loaded when --env-file is not given and the file exists.
const defaultEnvFile = ".env"

// runCmd starts a watch.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start watching the booking page",
	Long: `Start watching the booking page.

The command will:
  - Load environment variables from the env file, then the YAML config
  - Log in once and prepare one page per worker
  - Probe the booking page from every worker until one gets through
  - Send the notification once (or log it, with dry_run)

With the default "await" shutdown policy the process keeps the winning
session open and runs until interrupted (Ctrl+C) or it receives SIGTERM.

Example:
  slotwatch run -c slotwatch.yaml
  slotwatch run -c slotwatch.yaml --env-file secrets.env --verbose`,
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	runCmd.Flags().String("env-file", "", "path to a .env file (default: ./.env if present)")
	runCmd.Flags().BoolP("verbose", "v", false, "enable debug logging")
	_ = runCmd.MarkFlagRequired("config")
}

// loadEnvFile loads path into the process environment without overriding
// variables that are already set. An empty path loads ./.env if it exists.
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(os.Stderr, verbose)
	slog.SetDefault(logger)

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"workers", cfg.Workers,
		"attempts", cfg.Attempts.String(),
		"dry_run", cfg.DryRun,
		"shutdown", string(cfg.Shutdown),
	)

	opts, closeDriver, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	defer closeDriver()

	w, err := slotwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := w.Run(ctx)
	if err != nil {
		logger.Error("run failed", "run_id", out.RunID, "phase", out.Phase.String(), "error", err)
		return fmt.Errorf("run failed: %w", err)
	}

	for _, r := range out.Results {
		attrs := []any{
			"worker", r.Worker,
			"state", r.State.String(),
			"attempts", r.Attempts,
		}
		if r.Err != nil && !errors.Is(r.Err, context.Canceled) {
			attrs = append(attrs, "error", r.Err.Error())
		}
		logger.Info("worker result", attrs...)
	}
	logger.Info("shutdown complete",
		"run_id", out.RunID,
		"winner", out.Winner,
		"notified", out.Notified,
	)
	return nil
}
