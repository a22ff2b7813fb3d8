// Package main is the entry point for the slotwatch CLI.
//
// slotwatch can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	slotwatch run -c config.yaml       # Watch until a slot opens
//	slotwatch validate -c config.yaml  # Validate configuration
//	slotwatch version                  # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "slotwatch",
	Short: "Watch a gated booking page and alert once when it opens",
	Long: `slotwatch logs in to a booking site once, then probes the booking page
from several concurrent sessions. The first one to get through sends a single
notification and keeps its page open; the others stop.

Quick start:
  1. Create a config file (slotwatch.yaml) and a .env with secrets
  2. Check it: slotwatch validate -c slotwatch.yaml
  3. Run:      slotwatch run -c slotwatch.yaml --env-file .env

Example config:
  workers: 3
  attempts: unlimited
  dry_run: true
  target:
    login_url: https://example.org/Home?ReturnUrl=%2fServices
    landing_url: https://example.org/UserArea
    booking_url: https://example.org/Services/Booking/489
  login:
    username: ${SITE_USERNAME}
    password: ${SITE_PASSWORD}
    submit_url: https://example.org/Home/Login`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this slotwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "slotwatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
