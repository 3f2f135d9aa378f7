package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/audit"
	"meridian-hq/stratum/pkg/audit/export"
	auditstorage "meridian-hq/stratum/pkg/audit/storage"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
)

// Filters shared by query and export.
var auditFilterFlags struct {
	since     string
	until     string
	key       string
	keyPrefix string
	env       string
	source    string
	category  string
	requestID string
}

var auditQueryFlags struct {
	limit  int
	offset int
	format string
}

var auditExportFlags struct {
	format   string
	output   string
	pretty   bool
	noHeader bool
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query the audit trail",
	Long: `Query and export recorded resolution events.

Only the sqlite audit sink is queryable; the log sink emits events as
structured log lines and keeps no history. Event values are stored with
masking already applied, so exports are safe to share.

Subcommands:
  query  - Query audit events with filters
  export - Export matching events as CSV or JSON

Examples:
  # Show recent credential resolutions
  stratum audit query --category CREDENTIAL

  # Events for one key over a time range
  stratum audit query --key database.password --since 2026-08-01T00:00:00Z

  # Export a compliance window to a file
  stratum audit export --since 2026-08-01T00:00:00Z --until 2026-09-01T00:00:00Z -o august.csv`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit events",
	Long: `Query audit events with filters.

Timestamps use RFC3339, e.g. 2026-08-01T00:00:00Z. All filters combine
with AND; empty filters do not constrain the result.`,
	RunE: runAuditQuery,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit events",
	Long: `Export every audit event matching the filters as CSV or JSON.

CSV exports stream in pages, so large trails export without holding
every event in memory.`,
	RunE: runAuditExport,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditExportCmd)

	for _, c := range []*cobra.Command{auditQueryCmd, auditExportCmd} {
		c.Flags().StringVar(&auditFilterFlags.since, "since", "", "events at or after this time (RFC3339)")
		c.Flags().StringVar(&auditFilterFlags.until, "until", "", "events at or before this time (RFC3339)")
		c.Flags().StringVar(&auditFilterFlags.key, "key", "", "filter by exact key")
		c.Flags().StringVar(&auditFilterFlags.keyPrefix, "key-prefix", "", "filter by key prefix")
		c.Flags().StringVar(&auditFilterFlags.env, "env", "", "filter by environment code")
		c.Flags().StringVar(&auditFilterFlags.source, "source", "", "filter by resolution source")
		c.Flags().StringVar(&auditFilterFlags.category, "category", "", "filter by category (GENERAL, INTERNAL, CREDENTIAL)")
		c.Flags().StringVar(&auditFilterFlags.requestID, "request-id", "", "filter by request id")
	}

	auditQueryCmd.Flags().IntVar(&auditQueryFlags.limit, "limit", 100, "max results")
	auditQueryCmd.Flags().IntVar(&auditQueryFlags.offset, "offset", 0, "pagination offset")
	auditQueryCmd.Flags().StringVar(&auditQueryFlags.format, "format", "text", "output format: text, json")

	auditExportCmd.Flags().StringVar(&auditExportFlags.format, "format", "csv", "export format: csv, json")
	auditExportCmd.Flags().StringVarP(&auditExportFlags.output, "output", "o", "", "output file (default: stdout)")
	auditExportCmd.Flags().BoolVar(&auditExportFlags.pretty, "pretty", false, "indent JSON output")
	auditExportCmd.Flags().BoolVar(&auditExportFlags.noHeader, "no-header", false, "omit the CSV header row")
}

// openAuditStorage opens the queryable audit backend from configuration.
func openAuditStorage(cfg *config.Config) (audit.Storage, error) {
	if cfg.Audit.Sink != "sqlite" {
		return nil, fmt.Errorf("audit sink %q keeps no queryable history; set audit.sink to \"sqlite\"", cfg.Audit.Sink)
	}

	sqliteCfg := auditstorage.DefaultSQLiteConfig()
	sqliteCfg.Path = cfg.Audit.SQLitePath
	return auditstorage.NewSQLiteStorage(sqliteCfg)
}

// buildAuditQuery assembles the query from the shared filter flags.
func buildAuditQuery(limit, offset int) (*audit.Query, error) {
	q := &audit.Query{
		Key:         auditFilterFlags.key,
		KeyPrefix:   auditFilterFlags.keyPrefix,
		Environment: auditFilterFlags.env,
		Source:      auditFilterFlags.source,
		Category:    auditFilterFlags.category,
		RequestID:   auditFilterFlags.requestID,
		Limit:       limit,
		Offset:      offset,
	}

	if auditFilterFlags.since != "" {
		t, err := time.Parse(time.RFC3339, auditFilterFlags.since)
		if err != nil {
			return nil, cli.NewUsageError("invalid --since %q: %v", auditFilterFlags.since, err)
		}
		q.StartTime = &t
	}
	if auditFilterFlags.until != "" {
		t, err := time.Parse(time.RFC3339, auditFilterFlags.until)
		if err != nil {
			return nil, cli.NewUsageError("invalid --until %q: %v", auditFilterFlags.until, err)
		}
		q.EndTime = &t
	}

	if err := q.Validate(); err != nil {
		return nil, cli.NewUsageError("%v", err)
	}
	return q, nil
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if err := setupCLILogging(); err != nil {
		return err
	}

	storage, err := openAuditStorage(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer storage.Close()

	return queryAuditEvents(context.Background(), storage, os.Stdout)
}

func queryAuditEvents(ctx context.Context, storage audit.Storage, w io.Writer) error {
	format, err := cli.ParseFormat(auditQueryFlags.format)
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return cli.NewUsageError(`csv output is available via "stratum audit export"`)
	}

	query, err := buildAuditQuery(auditQueryFlags.limit, auditQueryFlags.offset)
	if err != nil {
		return err
	}

	events, err := storage.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
	}
	total, err := storage.Count(ctx, query)
	if err != nil {
		return cli.NewCommandError("audit", fmt.Errorf("count failed: %w", err))
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(w, map[string]any{
			"total_events": total,
			"events":       events,
		})
	}

	return writeAuditText(w, events, total)
}

func writeAuditText(w io.Writer, events []*audit.Event, total int64) error {
	fmt.Fprintf(w, "Total events: %d (showing %d)\n", total, len(events))
	fmt.Fprintln(w)

	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for i, event := range events {
		if i > 0 {
			fmt.Fprintln(w)
		}

		fmt.Fprintf(w, "Event ID: %s\n", event.ID)
		fmt.Fprintf(w, "Timestamp: %s\n", event.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(w, "Key: %s\n", event.Key)
		fmt.Fprintf(w, "Environment: %s\n", event.Environment)
		fmt.Fprintf(w, "Source: %s\n", event.Source)
		fmt.Fprintf(w, "Category: %s\n", event.Category)
		if event.Found {
			fmt.Fprintf(w, "Value: %s\n", event.Value)
		} else {
			fmt.Fprintln(w, "Value: (not found)")
		}
		if event.RequestID != "" {
			fmt.Fprintf(w, "Request ID: %s\n", event.RequestID)
		}

		// Show limited output for large result sets
		if i >= 9 && len(events) > 10 {
			remaining := len(events) - 10
			fmt.Fprintln(w)
			fmt.Fprintf(w, "... and %d more events\n", remaining)
			fmt.Fprintf(w, "Use --limit and --offset for pagination.\n")
			break
		}
	}

	return nil
}

func runAuditExport(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if err := setupCLILogging(); err != nil {
		return err
	}

	storage, err := openAuditStorage(config.GetConfig())
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer storage.Close()

	out := os.Stdout
	if auditExportFlags.output != "" {
		f, err := os.Create(auditExportFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	exported, err := exportAuditEvents(context.Background(), storage, out)
	if err != nil {
		return err
	}

	if auditExportFlags.output != "" {
		fmt.Printf("✓ Exported %d events to %s\n", exported, auditExportFlags.output)
	} else {
		fmt.Fprintf(os.Stderr, "✓ Exported %d events\n", exported)
	}
	return nil
}

func exportAuditEvents(ctx context.Context, storage audit.Storage, w io.Writer) (int, error) {
	format, err := cli.ParseFormat(auditExportFlags.format)
	if err != nil {
		return 0, err
	}

	query, err := buildAuditQuery(0, 0)
	if err != nil {
		return 0, err
	}

	switch format {
	case cli.FormatJSON:
		events, err := collectAuditEvents(ctx, storage, query)
		if err != nil {
			return 0, cli.NewCommandError("audit", err)
		}
		exporter := export.NewJSONExporter(auditExportFlags.pretty)
		if err := exporter.Export(ctx, events, w); err != nil {
			return 0, cli.NewCommandError("audit", err)
		}
		return len(events), nil

	case cli.FormatCSV:
		return exportAuditCSV(ctx, storage, query, w)

	default:
		return 0, cli.NewUsageError("export supports csv and json, not %q", auditExportFlags.format)
	}
}

// collectAuditEvents pages through every event matching the query. Storage
// backends cap unlimited queries at 100 rows, so export has to page
// explicitly to see the whole trail.
func collectAuditEvents(ctx context.Context, storage audit.Storage, query *audit.Query) ([]*audit.Event, error) {
	const pageSize = 500

	var all []*audit.Event
	for {
		page := *query
		page.Limit = pageSize
		page.Offset = len(all)

		events, err := storage.Query(ctx, &page)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		all = append(all, events...)
		if len(events) < pageSize {
			return all, nil
		}
	}
}

// exportAuditCSV streams matching events in pages so large trails export
// without holding every event in memory.
func exportAuditCSV(ctx context.Context, storage audit.Storage, query *audit.Query, w io.Writer) (int, error) {
	const pageSize = 500

	total, err := storage.Count(ctx, query)
	if err != nil {
		return 0, cli.NewCommandError("audit", fmt.Errorf("count failed: %w", err))
	}

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(total)

	exported := 0
	for {
		page := *query
		page.Limit = pageSize
		page.Offset = exported

		events, err := storage.Query(ctx, &page)
		if err != nil {
			progress.Error(err)
			return exported, cli.NewCommandError("audit", fmt.Errorf("query failed: %w", err))
		}
		if len(events) == 0 {
			break
		}

		exporter := export.NewCSVExporter(exported == 0 && !auditExportFlags.noHeader)
		if err := exporter.Export(ctx, events, w); err != nil {
			progress.Error(err)
			return exported, cli.NewCommandError("audit", err)
		}

		exported += len(events)
		progress.Update(int64(exported))

		if len(events) < pageSize {
			break
		}
	}

	progress.Finish()
	return exported, nil
}
