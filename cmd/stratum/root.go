package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stratum",
	Short: "Stratum - environment-aware configuration management service",
	Long: `Stratum is a centralized configuration management service that resolves
configuration keys through a tiered fallback chain.

Resolution order for a key:
  1. Environment-specific value for the active environment
  2. Global value (no environment binding)
  3. Process environment variable (local environments only)
  4. Caller-supplied default

The active environment comes from an explicit override, the STRATUM_ENV
variable, or the fail-safe production default, in that order. Resolved
values are cached with a TTL, classified by sensitivity, and masked
before they appear in logs, audit events, or admin responses.

For more information, visit: https://github.com/meridian-hq/stratum`,
	Version: Version,
}

// Execute runs the root command. Usage errors exit 2, runtime errors
// exit 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setupCLILogging configures quiet human-readable logging for one-shot
// commands. Component logs go to stderr so stdout stays parseable.
func setupCLILogging() error {
	level := "warn"
	if verbose {
		level = "debug"
	}
	_, err := logging.Setup(logging.Config{
		Level:  level,
		Format: "text",
		Writer: os.Stderr,
	})
	return err
}
