package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/security/auth"
)

var keysFlags struct {
	name string
	role string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage admin API keys",
	Long: `Generate and inspect API keys for the admin endpoints.

Keys are static: the service loads them from the admin_keys list in the
bootstrap configuration at startup. Generating a key only prints it; add
the printed snippet to config.yaml to activate it.

Subcommands:
  generate - Generate a new admin API key
  list     - List the keys in the bootstrap configuration

Examples:
  # Generate a read-only key for a dashboard
  stratum keys generate --name dashboard

  # Generate an admin key
  stratum keys generate --name ops --role admin

  # Show configured keys (values masked)
  stratum keys list`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new admin API key",
	Long: `Generate a new admin API key and print a configuration snippet.

The key is random and carries the "stk_" prefix. It is not stored
anywhere; the service only accepts keys listed in its configuration.`,
	RunE: runKeysGenerate,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured admin keys",
	Long:  `List the admin keys in the bootstrap configuration with values masked.`,
	RunE:  runKeysList,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd, keysListCmd)

	keysGenerateCmd.Flags().StringVar(&keysFlags.name, "name", "", "human-readable key label")
	keysGenerateCmd.Flags().StringVar(&keysFlags.role, "role", "readonly", "key role: admin, readonly")
}

func runKeysGenerate(cmd *cobra.Command, args []string) error {
	return generateAdminKey(os.Stdout)
}

func generateAdminKey(w io.Writer) error {
	role, err := parseRole(keysFlags.role)
	if err != nil {
		return cli.NewUsageError("%v", err)
	}

	name := keysFlags.name
	if name == "" {
		name = fmt.Sprintf("key-%d", time.Now().Unix())
	}

	key, err := auth.GenerateKey()
	if err != nil {
		return cli.NewCommandError("keys", err)
	}

	fmt.Fprintf(w, "Key:  %s\n", key)
	fmt.Fprintf(w, "Name: %s\n", name)
	fmt.Fprintf(w, "Role: %s\n", role)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "⚠️  The key is not stored anywhere; add it to the service configuration and keep it secret")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration snippet:")
	fmt.Fprintln(w, "service:")
	fmt.Fprintln(w, "  admin_keys:")
	fmt.Fprintf(w, "    - key: %q\n", key)
	fmt.Fprintf(w, "      name: %q\n", name)
	fmt.Fprintf(w, "      role: %q\n", role)

	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	return listAdminKeys(config.GetConfig(), os.Stdout)
}

func listAdminKeys(cfg *config.Config, w io.Writer) error {
	if len(cfg.Service.AdminKeys) == 0 {
		fmt.Fprintln(w, "No admin keys configured.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tROLE\tENABLED\tKEY")
	for _, k := range cfg.Service.AdminKeys {
		display := "readonly"
		if role, err := parseRole(k.Role); err == nil {
			display = string(role)
		} else {
			display = k.Role + " (invalid)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", k.Name, display, k.IsEnabled(), maskKey(k.Key))
	}
	return tw.Flush()
}

// maskKey keeps the prefix and a short stub, enough to match a key
// against its generated form without exposing it.
func maskKey(key string) string {
	const visible = 8
	if len(key) <= visible {
		return "****"
	}
	return key[:visible] + "****"
}
