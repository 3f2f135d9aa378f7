package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"meridian-hq/stratum/pkg/audit"
)

// createTestEvent builds an event with sensible defaults for export tests.
func createTestEvent(id string) *audit.Event {
	return &audit.Event{
		ID:          id,
		Timestamp:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Key:         "email.smtp.host",
		Environment: "DEV",
		Source:      "environment",
		Category:    "INTERNAL",
		Value:       "mail****",
		Found:       true,
		RequestID:   "req-" + id,
	}
}

func TestJSONExporter_Export_EmptyEvents(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.Export(context.Background(), []*audit.Event{}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if buf.String() != "[]" {
		t.Errorf("Export() = %q, want %q", buf.String(), "[]")
	}
}

func TestJSONExporter_Export_SingleEvent(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	err := exporter.Export(context.Background(), []*audit.Event{createTestEvent("evt-1")}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if len(decoded) != 1 {
		t.Fatalf("Decoded length = %d, want 1", len(decoded))
	}
	if decoded[0].ID != "evt-1" {
		t.Errorf("Decoded ID = %v, want %v", decoded[0].ID, "evt-1")
	}
	if decoded[0].Key != "email.smtp.host" {
		t.Errorf("Decoded Key = %v, want %v", decoded[0].Key, "email.smtp.host")
	}
	if !decoded[0].Found {
		t.Error("Decoded Found = false, want true")
	}
}

func TestJSONExporter_Export_MultipleEvents(t *testing.T) {
	events := []*audit.Event{
		createTestEvent("evt-1"),
		createTestEvent("evt-2"),
		createTestEvent("evt-3"),
	}

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	if err := exporter.Export(context.Background(), events, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if len(decoded) != 3 {
		t.Errorf("Decoded length = %d, want 3", len(decoded))
	}
	for i, event := range events {
		if decoded[i].ID != event.ID {
			t.Errorf("Decoded[%d].ID = %v, want %v", i, decoded[i].ID, event.ID)
		}
	}
}

func TestJSONExporter_Export_PrettyPrint(t *testing.T) {
	exporter := NewJSONExporter(true)
	var buf bytes.Buffer

	err := exporter.Export(context.Background(), []*audit.Event{createTestEvent("evt-1")}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "\n") {
		t.Error("Pretty-printed JSON missing newlines")
	}
	if !strings.Contains(output, "  ") {
		t.Error("Pretty-printed JSON missing indentation")
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode pretty-printed JSON: %v", err)
	}
}

func TestJSONExporter_Export_MaskedValuePreserved(t *testing.T) {
	event := createTestEvent("evt-1")
	event.Key = "email.smtp.password"
	event.Category = "CREDENTIAL"
	event.Value = "******"

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	if err := exporter.Export(context.Background(), []*audit.Event{event}, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if decoded[0].Value != "******" {
		t.Errorf("Decoded Value = %q, want %q", decoded[0].Value, "******")
	}
}

func TestJSONExporter_Export_SpecialCharacters(t *testing.T) {
	event := createTestEvent("evt-1")
	event.Key = "motd.text"
	event.Category = "GENERAL"
	event.Value = `line1
"quoted", comma & <html>`

	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	if err := exporter.Export(context.Background(), []*audit.Event{event}, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}
	if decoded[0].Value != event.Value {
		t.Errorf("Decoded Value = %q, want %q", decoded[0].Value, event.Value)
	}
}

func TestJSONExporter_ExportStream(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	eventsCh := make(chan *audit.Event, 3)
	eventsCh <- createTestEvent("evt-1")
	eventsCh <- createTestEvent("evt-2")
	eventsCh <- createTestEvent("evt-3")
	close(eventsCh)

	if err := exporter.ExportStream(context.Background(), eventsCh, &buf); err != nil {
		t.Fatalf("ExportStream() error = %v", err)
	}

	var decoded []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to decode streamed JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("Decoded length = %d, want 3", len(decoded))
	}
}

func TestJSONExporter_ExportStream_Empty(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	eventsCh := make(chan *audit.Event)
	close(eventsCh)

	if err := exporter.ExportStream(context.Background(), eventsCh, &buf); err != nil {
		t.Fatalf("ExportStream() error = %v", err)
	}

	if buf.String() != "[]" {
		t.Errorf("ExportStream() = %q, want %q", buf.String(), "[]")
	}
}

func TestJSONExporter_ExportStream_ContextCancelled(t *testing.T) {
	exporter := NewJSONExporter(false)
	var buf bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eventsCh := make(chan *audit.Event)
	err := exporter.ExportStream(ctx, eventsCh, &buf)
	if err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}
	if err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
