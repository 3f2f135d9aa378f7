package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"meridian-hq/stratum/pkg/audit"
	auditstorage "meridian-hq/stratum/pkg/audit/storage"
	"meridian-hq/stratum/pkg/cli"
)

func resetAuditFlags() {
	auditFilterFlags.since = ""
	auditFilterFlags.until = ""
	auditFilterFlags.key = ""
	auditFilterFlags.keyPrefix = ""
	auditFilterFlags.env = ""
	auditFilterFlags.source = ""
	auditFilterFlags.category = ""
	auditFilterFlags.requestID = ""

	auditQueryFlags.limit = 100
	auditQueryFlags.offset = 0
	auditQueryFlags.format = "text"

	auditExportFlags.format = "csv"
	auditExportFlags.output = ""
	auditExportFlags.pretty = false
	auditExportFlags.noHeader = false
}

// seededAuditStorage returns a memory backend holding n events with
// ascending timestamps. Every third event is a credential, every fifth a
// miss.
func seededAuditStorage(t *testing.T, n int) *auditstorage.MemoryStorage {
	t.Helper()

	storage := auditstorage.NewMemoryStorage()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < n; i++ {
		event := &audit.Event{
			ID:          fmt.Sprintf("event-%04d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			Key:         fmt.Sprintf("app.setting%d", i),
			Environment: "DEV",
			Source:      "environment",
			Category:    "GENERAL",
			Value:       fmt.Sprintf("value-%d", i),
			Found:       true,
		}
		if i%3 == 0 {
			event.Key = fmt.Sprintf("database.password%d", i)
			event.Category = "CREDENTIAL"
			event.Value = "db-****"
		}
		if i%5 == 0 {
			event.Found = false
			event.Value = ""
			event.Source = "default"
		}
		if err := storage.Store(context.Background(), event); err != nil {
			t.Fatal(err)
		}
	}
	return storage
}

func TestQueryAuditEventsText(t *testing.T) {
	resetAuditFlags()
	storage := seededAuditStorage(t, 3)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("queryAuditEvents() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Total events: 3 (showing 3)") {
		t.Errorf("expected count header, got:\n%s", out)
	}
	if !strings.Contains(out, "app.setting1") {
		t.Errorf("expected event keys, got:\n%s", out)
	}
	if !strings.Contains(out, "Value: (not found)") {
		t.Errorf("expected miss rendering, got:\n%s", out)
	}
}

func TestQueryAuditEventsTruncation(t *testing.T) {
	resetAuditFlags()
	storage := seededAuditStorage(t, 12)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("queryAuditEvents() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "... and 2 more events") {
		t.Errorf("expected truncation notice, got:\n%s", out)
	}
	if !strings.Contains(out, "Use --limit and --offset for pagination.") {
		t.Errorf("expected pagination hint, got:\n%s", out)
	}
}

func TestQueryAuditEventsCategoryFilter(t *testing.T) {
	resetAuditFlags()
	auditFilterFlags.category = "CREDENTIAL"
	storage := seededAuditStorage(t, 6)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("queryAuditEvents() error = %v", err)
	}

	// Events 0 and 3 are credentials
	out := buf.String()
	if !strings.Contains(out, "Total events: 2") {
		t.Errorf("expected 2 credential events, got:\n%s", out)
	}
	if strings.Contains(out, "app.setting1") {
		t.Errorf("non-credential event leaked through filter, got:\n%s", out)
	}
}

func TestQueryAuditEventsTimeRange(t *testing.T) {
	resetAuditFlags()
	auditFilterFlags.since = "2026-08-01T12:00:02Z"
	auditFilterFlags.until = "2026-08-01T12:00:04Z"
	storage := seededAuditStorage(t, 10)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("queryAuditEvents() error = %v", err)
	}

	// Inclusive range covers events 2, 3, 4
	if !strings.Contains(buf.String(), "Total events: 3") {
		t.Errorf("expected 3 events in range, got:\n%s", buf.String())
	}
}

func TestQueryAuditEventsJSON(t *testing.T) {
	resetAuditFlags()
	auditQueryFlags.format = "json"
	storage := seededAuditStorage(t, 4)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("queryAuditEvents() error = %v", err)
	}

	var result struct {
		TotalEvents int64             `json:"total_events"`
		Events      []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result.TotalEvents != 4 {
		t.Errorf("total_events = %d, want 4", result.TotalEvents)
	}
	if len(result.Events) != 4 {
		t.Errorf("events length = %d, want 4", len(result.Events))
	}
}

func TestQueryAuditEventsCSVRejected(t *testing.T) {
	resetAuditFlags()
	auditQueryFlags.format = "csv"
	storage := seededAuditStorage(t, 1)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err == nil {
		t.Fatal("queryAuditEvents() with csv format should return error")
	}
	if !strings.Contains(err.Error(), "audit export") {
		t.Errorf("error should point at audit export, got: %v", err)
	}
	if cli.ExitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", cli.ExitCode(err))
	}
}

func TestQueryAuditEventsBadTimestamp(t *testing.T) {
	resetAuditFlags()
	auditFilterFlags.since = "yesterday"
	storage := seededAuditStorage(t, 1)

	var buf bytes.Buffer
	err := queryAuditEvents(context.Background(), storage, &buf)
	if err == nil {
		t.Fatal("queryAuditEvents() with bad timestamp should return error")
	}
	if cli.ExitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2", cli.ExitCode(err))
	}
}

func TestExportAuditEventsCSV(t *testing.T) {
	resetAuditFlags()
	storage := seededAuditStorage(t, 3)

	var buf bytes.Buffer
	exported, err := exportAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("exportAuditEvents() error = %v", err)
	}
	if exported != 3 {
		t.Errorf("exported = %d, want 3", exported)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "id,timestamp,key") {
		t.Errorf("first line should be the header, got: %s", lines[0])
	}
}

func TestExportAuditEventsCSVNoHeader(t *testing.T) {
	resetAuditFlags()
	auditExportFlags.noHeader = true
	storage := seededAuditStorage(t, 3)

	var buf bytes.Buffer
	exported, err := exportAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("exportAuditEvents() error = %v", err)
	}
	if exported != 3 {
		t.Errorf("exported = %d, want 3", exported)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows without header, got %d lines", len(lines))
	}
	if strings.HasPrefix(lines[0], "id,timestamp") {
		t.Error("header row present despite --no-header")
	}
}

func TestExportAuditEventsCSVPaging(t *testing.T) {
	resetAuditFlags()

	// More events than one page so the export walks multiple pages
	storage := seededAuditStorage(t, 1203)

	var buf bytes.Buffer
	exported, err := exportAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("exportAuditEvents() error = %v", err)
	}
	if exported != 1203 {
		t.Errorf("exported = %d, want 1203", exported)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1204 {
		t.Errorf("expected header + 1203 rows, got %d lines", len(lines))
	}
	if strings.Count(out, "id,timestamp,key") != 1 {
		t.Error("header should appear exactly once across pages")
	}
}

func TestExportAuditEventsJSON(t *testing.T) {
	resetAuditFlags()
	auditExportFlags.format = "json"
	storage := seededAuditStorage(t, 5)

	var buf bytes.Buffer
	exported, err := exportAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("exportAuditEvents() error = %v", err)
	}
	if exported != 5 {
		t.Errorf("exported = %d, want 5", exported)
	}

	var events []*audit.Event
	if err := json.Unmarshal(buf.Bytes(), &events); err != nil {
		t.Fatalf("output is not a JSON event array: %v", err)
	}
	if len(events) != 5 {
		t.Errorf("decoded %d events, want 5", len(events))
	}
}

func TestExportAuditEventsFilter(t *testing.T) {
	resetAuditFlags()
	auditFilterFlags.keyPrefix = "database."
	storage := seededAuditStorage(t, 9)

	var buf bytes.Buffer
	exported, err := exportAuditEvents(context.Background(), storage, &buf)
	if err != nil {
		t.Fatalf("exportAuditEvents() error = %v", err)
	}

	// Events 0, 3, 6 carry database.* keys
	if exported != 3 {
		t.Errorf("exported = %d, want 3", exported)
	}
	if strings.Contains(buf.String(), "app.setting") {
		t.Error("filtered export leaked non-matching keys")
	}
}
