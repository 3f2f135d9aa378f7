package export

import (
	"context"
	"encoding/json"
	"io"

	"meridian-hq/stratum/pkg/audit"
)

// JSONExporter exports audit events to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes audit events to the provided writer as a JSON array.
// If Pretty is true, the JSON will be indented for readability.
func (e *JSONExporter) Export(ctx context.Context, events []*audit.Event, w io.Writer) error {
	if len(events) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error

	if e.Pretty {
		data, err = json.MarshalIndent(events, "", "  ")
	} else {
		data, err = json.Marshal(events)
	}
	if err != nil {
		return audit.NewExportError("json", len(events), err)
	}

	if _, err := w.Write(data); err != nil {
		return audit.NewExportError("json", len(events), err)
	}
	return nil
}

// ExportStream exports audit events from a channel to JSON format.
// This is memory-efficient for large result sets as it streams events
// one at a time instead of loading all events in memory.
//
// The events are exported as a JSON array. The stream processes events
// as they arrive on the channel, making it suitable for very large exports.
func (e *JSONExporter) ExportStream(ctx context.Context, eventsCh <-chan *audit.Event, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return audit.NewExportError("json", 0, err)
	}

	first := true
	eventCount := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-eventsCh:
			if !ok {
				// Channel closed - write closing bracket and return
				if _, err := w.Write([]byte("]")); err != nil {
					return audit.NewExportError("json", eventCount, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return audit.NewExportError("json", eventCount, err)
				}
				if e.Pretty {
					if _, err := w.Write([]byte("\n")); err != nil {
						return audit.NewExportError("json", eventCount, err)
					}
				}
			}
			first = false

			data, err := e.serializeEvent(event)
			if err != nil {
				return audit.NewExportError("json", eventCount, err)
			}
			if _, err := w.Write(data); err != nil {
				return audit.NewExportError("json", eventCount, err)
			}

			eventCount++
		}
	}
}

// serializeEvent serializes a single audit event to JSON.
func (e *JSONExporter) serializeEvent(event *audit.Event) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(event, "  ", "  ")
	}
	return json.Marshal(event)
}
