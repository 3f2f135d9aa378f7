package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/resolver"
	"meridian-hq/stratum/pkg/store/seed"
)

var getFlags struct {
	valueType  string
	fallback   string
	defaultSet bool
	envCode    string
	format     string
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Resolve a configuration key",
	Long: `Resolve a single configuration key through the tiered fallback chain
and print the value.

The resolution follows the same order the service uses: an
environment-specific value, then a global value, then (in local
environments) a process environment variable, then the --default value.
Without --default a missing key is an error.

Examples:
  # Resolve a key in the detected environment
  stratum get database.pool_size

  # Typed resolution with a default
  stratum get database.pool_size --type int --default 10

  # Resolve against a specific environment
  stratum get feature.new_checkout --type bool --env QA

  # Machine-readable output with the resolution source
  stratum get database.host --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&getFlags.valueType, "type", "t", "string", "value type: string, int, bool")
	getCmd.Flags().StringVarP(&getFlags.fallback, "default", "d", "", "default value when the key is not found")
	getCmd.Flags().StringVar(&getFlags.envCode, "env", "", "resolve against this environment code")
	getCmd.Flags().StringVarP(&getFlags.format, "format", "f", "text", "output format: text, json")
}

func runGet(cmd *cobra.Command, args []string) error {
	if cmd != nil {
		getFlags.defaultSet = cmd.Flags().Changed("default")
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if err := setupCLILogging(); err != nil {
		return err
	}

	return resolveKey(context.Background(), config.GetConfig(), args[0], os.Stdout)
}

type getResult struct {
	Key         string `json:"key"`
	Environment string `json:"environment"`
	Source      string `json:"source"`
	Found       bool   `json:"found"`
	Value       string `json:"value"`
	Type        string `json:"type"`
}

func resolveKey(ctx context.Context, cfg *config.Config, key string, w io.Writer) error {
	format, err := cli.ParseFormat(getFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewUsageError("csv output is not supported for get")
	}

	// Validate the type and default before touching the store.
	var intFallback int
	var boolFallback bool
	switch getFlags.valueType {
	case "string":
	case "int":
		if getFlags.defaultSet {
			n, err := strconv.Atoi(strings.TrimSpace(getFlags.fallback))
			if err != nil {
				return cli.NewUsageError("--default %q is not an integer", getFlags.fallback)
			}
			intFallback = n
		}
	case "bool":
		if getFlags.defaultSet {
			b, err := strconv.ParseBool(strings.TrimSpace(getFlags.fallback))
			if err != nil {
				return cli.NewUsageError("--default %q is not a boolean", getFlags.fallback)
			}
			boolFallback = b
		}
	default:
		return cli.NewUsageError("unknown type %q (want string, int, or bool)", getFlags.valueType)
	}

	res, _, closeStore, err := buildResolver(ctx, cfg, getFlags.envCode)
	if err != nil {
		return cli.NewCommandError("get", err)
	}
	defer closeStore()

	resolution, err := res.Resolve(ctx, key)
	if err != nil {
		return cli.NewCommandError("get", err)
	}
	if !resolution.Found && !getFlags.defaultSet {
		return fmt.Errorf("key %q not found in environment %s", key, resolution.Environment)
	}

	// The typed getters hit the cache the Resolve call just filled, so
	// conversion follows the same rules a library caller sees.
	var display string
	switch getFlags.valueType {
	case "string":
		v, err := res.GetString(ctx, key, getFlags.fallback)
		if err != nil {
			return cli.NewCommandError("get", err)
		}
		display = v
	case "int":
		v, err := res.GetInt(ctx, key, intFallback)
		if err != nil {
			return cli.NewCommandError("get", err)
		}
		display = strconv.Itoa(v)
	case "bool":
		v, err := res.GetBool(ctx, key, boolFallback)
		if err != nil {
			return cli.NewCommandError("get", err)
		}
		display = strconv.FormatBool(v)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, getResult{
			Key:         resolution.Key,
			Environment: resolution.Environment,
			Source:      string(resolution.Source),
			Found:       resolution.Found,
			Value:       display,
			Type:        getFlags.valueType,
		})
	}

	fmt.Fprintln(w, display)
	return nil
}

// buildResolver wires a store-backed resolver for one-shot commands. The
// returned closer releases the store.
func buildResolver(ctx context.Context, cfg *config.Config, envOverride string) (*resolver.Resolver, *environment.Resolver, func(), error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	if cfg.Store.Seed.Path != "" {
		target, ok := st.(seed.Target)
		if !ok {
			st.Close()
			return nil, nil, nil, fmt.Errorf("store backend %q does not support seeding", cfg.Store.Backend)
		}
		if _, err := seed.Apply(ctx, cfg.Store.Seed.Path, target); err != nil {
			st.Close()
			return nil, nil, nil, fmt.Errorf("failed to apply seed: %w", err)
		}
	}

	detector := environment.NewDetector(&environment.DetectorConfig{
		Variable: cfg.Environment.Variable,
		Fallback: cfg.Environment.Default,
	})
	env := environment.NewResolver(st, &environment.Config{
		TTL:      cfg.Resolution.CacheTTL,
		Detector: detector,
	})
	switch {
	case envOverride != "":
		env.SetOverride(envOverride)
	case cfg.Environment.Override != "":
		env.SetOverride(cfg.Environment.Override)
	}

	res := resolver.New(st, env, &resolver.Config{
		TTL:               cfg.Resolution.CacheTTL,
		EnvVarPrefix:      cfg.Resolution.EnvVarPrefix,
		LocalEnvironments: cfg.Environment.LocalCodes,
	})

	return res, env, func() { st.Close() }, nil
}
