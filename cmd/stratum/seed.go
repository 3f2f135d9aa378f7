package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/store/seed"
)

var seedApplyFlags struct {
	yes bool
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Work with store seed files",
	Long: `Validate and apply YAML seed documents.

A seed document declares environments and configuration entries. Applying
it replaces the store contents; environment ids are assigned from seed
order.

Subcommands:
  lint  - Validate a seed file without touching the store
  apply - Replace the configured store's contents with a seed file

Examples:
  # Check a seed file before rollout
  stratum seed lint seed.yaml

  # Load it into the configured store
  stratum seed apply seed.yaml --yes`,
}

var seedLintCmd = &cobra.Command{
	Use:   "lint FILE",
	Short: "Validate a seed file",
	Long: `Validate a seed file and report every problem found.

The same checks run when the service loads a seed at startup; lint runs
them without a store so broken files are caught before rollout.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeedLint,
}

var seedApplyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Replace store contents with a seed file",
	Long: `Validate a seed file and replace the configured store's contents
with it.

This is a destructive operation: every environment and entry currently
in the store is replaced. Pass --yes to confirm.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeedApply,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.AddCommand(seedLintCmd, seedApplyCmd)

	seedApplyCmd.Flags().BoolVar(&seedApplyFlags.yes, "yes", false, "confirm replacing store contents")
}

func runSeedLint(cmd *cobra.Command, args []string) error {
	return lintSeedFile(args[0], os.Stdout)
}

func lintSeedFile(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	doc := &seed.Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	problems := doc.Validate()
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(w, "✗ %s\n", p)
		}
		fmt.Fprintln(w)
		return fmt.Errorf("found %d problem(s) in %s", len(problems), path)
	}

	fmt.Fprintf(w, "✓ %s is valid (%d environments, %d entries)\n",
		path, len(doc.Environments), len(doc.Entries))
	return nil
}

func runSeedApply(cmd *cobra.Command, args []string) error {
	if !seedApplyFlags.yes {
		return cli.NewUsageError("seed apply replaces all store contents; re-run with --yes to confirm")
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if err := setupCLILogging(); err != nil {
		return err
	}

	return applySeedFile(context.Background(), config.GetConfig(), args[0], os.Stdout)
}

func applySeedFile(ctx context.Context, cfg *config.Config, path string, w io.Writer) error {
	st, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("seed", fmt.Errorf("failed to open store: %w", err))
	}
	defer st.Close()

	target, ok := st.(seed.Target)
	if !ok {
		return cli.NewCommandError("seed",
			fmt.Errorf("store backend %q does not support seeding", cfg.Store.Backend))
	}

	doc, err := seed.Apply(ctx, path, target)
	if err != nil {
		return cli.NewCommandError("seed", err)
	}

	fmt.Fprintf(w, "✓ Seed applied to %s store (%d environments, %d entries)\n",
		cfg.Store.Backend, len(doc.Environments), len(doc.Entries))
	return nil
}
