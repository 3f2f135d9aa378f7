package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"meridian-hq/stratum/pkg/audit"
)

// CSVExporter exports audit events to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes audit events to the provided writer in CSV format.
func (e *CSVExporter) Export(ctx context.Context, events []*audit.Event, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", len(events), err)
		}
	}

	for _, event := range events {
		if err := writer.Write(eventToRow(event)); err != nil {
			return audit.NewExportError("csv", len(events), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return audit.NewExportError("csv", len(events), err)
	}
	return nil
}

// ExportStream exports audit events from a channel to CSV format.
// This is memory-efficient for large result sets as it streams events
// one at a time instead of loading all events in memory.
//
// The CSV writer flushes periodically to provide progress feedback
// for long-running exports.
func (e *CSVExporter) ExportStream(ctx context.Context, eventsCh <-chan *audit.Event, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return audit.NewExportError("csv", 0, err)
		}
	}

	eventCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-eventsCh:
			if !ok {
				// Channel closed - flush and return
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", eventCount, err)
				}
				return nil
			}

			if err := writer.Write(eventToRow(event)); err != nil {
				return audit.NewExportError("csv", eventCount, err)
			}

			eventCount++

			// Flush periodically (every 100 events)
			if eventCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return audit.NewExportError("csv", eventCount, err)
				}
			}
		}
	}
}

// headerRow returns the CSV header row.
func headerRow() []string {
	return []string{
		"id", "timestamp", "key", "environment", "source",
		"category", "value", "found", "request_id",
	}
}

// eventToRow converts an audit event to a CSV row.
func eventToRow(event *audit.Event) []string {
	return []string{
		event.ID,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		event.Key,
		event.Environment,
		event.Source,
		event.Category,
		event.Value,
		strconv.FormatBool(event.Found),
		event.RequestID,
	}
}
