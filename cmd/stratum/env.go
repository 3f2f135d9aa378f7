package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/environment"
)

var envFlags struct {
	format string
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the detected environment",
	Long: `Show which environment the service would resolve against and why.

The report names the detection source (explicit override, the configured
OS variable, or the fail-safe default) and whether the detected code
resolves to an environment identity in the store.

Examples:
  # Show the detected environment
  stratum env

  # Machine-readable report
  stratum env --format json`,
	RunE: runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)

	envCmd.Flags().StringVarP(&envFlags.format, "format", "f", "text", "output format: text, json")
}

func runEnv(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if err := setupCLILogging(); err != nil {
		return err
	}

	return reportEnvironment(context.Background(), config.GetConfig(), os.Stdout)
}

type envReport struct {
	Environment     string `json:"environment"`
	DetectionSource string `json:"detection_source"`
	Variable        string `json:"variable"`
	EnvironmentID   *int64 `json:"environment_id,omitempty"`
	Resolvable      bool   `json:"resolvable"`
	Error           string `json:"error,omitempty"`
}

func reportEnvironment(ctx context.Context, cfg *config.Config, w io.Writer) error {
	format, err := cli.ParseFormat(envFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewUsageError("csv output is not supported for env")
	}

	_, env, closeStore, err := buildResolver(ctx, cfg, "")
	if err != nil {
		return cli.NewCommandError("env", err)
	}
	defer closeStore()

	report := envReport{
		Environment: env.CurrentCode(),
		Variable:    cfg.Environment.Variable,
	}

	switch {
	case env.Detector().Override() != "":
		report.DetectionSource = "override"
	case variableSet(cfg.Environment.Variable):
		report.DetectionSource = "variable"
	default:
		report.DetectionSource = "fail-safe default"
	}

	if id, err := env.CurrentID(ctx); err != nil {
		report.Error = err.Error()
	} else {
		report.Resolvable = true
		report.EnvironmentID = &id
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, report)
	}

	fmt.Fprintf(w, "Environment: %s\n", report.Environment)
	if report.DetectionSource == "variable" {
		fmt.Fprintf(w, "Detection: variable (%s)\n", report.Variable)
	} else {
		fmt.Fprintf(w, "Detection: %s\n", report.DetectionSource)
	}
	if report.Resolvable {
		fmt.Fprintf(w, "Store identity: %d\n", *report.EnvironmentID)
	} else {
		fmt.Fprintf(w, "Store identity: unresolved (%s)\n", report.Error)
	}
	return nil
}

// variableSet reports whether the detection variable holds a usable code.
func variableSet(name string) bool {
	val, ok := os.LookupEnv(name)
	return ok && environment.Normalize(val) != ""
}
