package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the bootstrap configuration",
	Long: `Validate the bootstrap configuration file without starting the service.

The file is loaded the same way "stratum run" loads it: defaults are
applied, STRATUM_* environment variable overrides are honored, and the
result is validated.

Examples:
  # Validate the default config file
  stratum validate

  # Validate a specific file
  stratum validate --config /etc/stratum/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	return validateConfigFile(cfgFile, os.Stdout)
}

func validateConfigFile(path string, w io.Writer) error {
	fmt.Fprintf(w, "Validating %s\n", path)
	fmt.Fprintln(w)

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	fmt.Fprintf(w, "✓ Service: listen on %s\n", cfg.Service.ListenAddress)
	fmt.Fprintf(w, "✓ Environment: variable %s, fail-safe %s\n",
		cfg.Environment.Variable, cfg.Environment.Default)
	if cfg.Environment.Override != "" {
		fmt.Fprintf(w, "  Override pinned to %s\n", cfg.Environment.Override)
	}
	fmt.Fprintf(w, "✓ Store: %s\n", cfg.Store.Backend)
	if cfg.Store.Seed.Path != "" {
		fmt.Fprintf(w, "✓ Seed: %s (watch: %v)\n", cfg.Store.Seed.Path, cfg.Store.Seed.Watch)
	}
	fmt.Fprintf(w, "✓ Resolution: cache TTL %s, env var prefix %s\n",
		cfg.Resolution.CacheTTL, cfg.Resolution.EnvVarPrefix)
	if cfg.Audit.Enabled {
		fmt.Fprintf(w, "✓ Audit: sink %s, retention %s\n",
			cfg.Audit.Sink, cfg.Audit.Retention.MaxAge)
	} else {
		fmt.Fprintln(w, "  Audit: disabled")
	}

	enabled := 0
	for _, k := range cfg.Service.AdminKeys {
		if k.IsEnabled() {
			enabled++
		}
	}
	if enabled > 0 {
		fmt.Fprintf(w, "✓ Admin keys: %d enabled\n", enabled)
	} else {
		fmt.Fprintln(w, "⚠️  No enabled admin keys; admin endpoints will be disabled")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration is valid")
	return nil
}
