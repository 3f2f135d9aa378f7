// Package export writes audit trails out as JSON or CSV.
//
// Both exporters accept the masked events the audit storage returns, so
// an export can never reveal more than the trail itself holds. CREDENTIAL
// values were masked at recording time; exporting is a pure formatting
// step.
//
// # Formats
//
// JSONExporter writes a JSON array, one object per event, optionally
// indented:
//
//	exporter := export.NewJSONExporter(true)
//	err := exporter.Export(ctx, events, os.Stdout)
//
// CSVExporter writes one row per event with an optional header row,
// escaping handled by encoding/csv:
//
//	exporter := export.NewCSVExporter(true)
//	f, _ := os.Create("audit.csv")
//	defer f.Close()
//	err := exporter.Export(ctx, events, f)
//
// # Streaming
//
// Export takes a fully materialized slice. For trails too large to hold
// in memory, ExportStream consumes a channel and writes each event as it
// arrives, so a producer can page through storage while the exporter
// writes.
//
// # Errors
//
// Failures surface as *audit.ExportError carrying the format and the
// number of events written before the failure, wrapping the underlying
// encoding or writer error.
package export
