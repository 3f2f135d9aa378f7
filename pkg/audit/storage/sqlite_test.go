package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"meridian-hq/stratum/pkg/audit"
)

// createTempDB creates a temporary SQLite database for testing.
func createTempDB(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}

	storage, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}

	return storage, dbPath
}

// makeEvent builds a test event with sensible defaults. The value carries
// the masked form produced at observation time.
func makeEvent(id string, timestamp time.Time) *audit.Event {
	return &audit.Event{
		ID:          id,
		Timestamp:   timestamp,
		Key:         "email.smtp.host",
		Environment: "DEV",
		Source:      "environment",
		Category:    "INTERNAL",
		Value:       "mail****",
		Found:       true,
		RequestID:   "req-" + id,
	}
}

// TestSQLiteStorage_Initialize tests database initialization.
func TestSQLiteStorage_Initialize(t *testing.T) {
	storage, dbPath := createTempDB(t)
	defer storage.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

// TestSQLiteStorage_Reopen tests that initialization is idempotent across opens.
func TestSQLiteStorage_Reopen(t *testing.T) {
	storage, dbPath := createTempDB(t)

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := storage.Store(ctx, makeEvent("evt-1", now)); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	storage.Close()

	reopened, err := NewSQLiteStorage(&SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to reopen storage: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 event after reopen, got %d", count)
	}
}

// TestSQLiteStorage_StoreAndQuery tests storing and querying events.
func TestSQLiteStorage_StoreAndQuery(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	event := makeEvent("evt-1", now)
	if err := storage.Store(ctx, event); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := storage.Query(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(results))
	}

	r := results[0]
	if r.ID != "evt-1" {
		t.Errorf("Expected ID 'evt-1', got '%s'", r.ID)
	}
	if r.Key != "email.smtp.host" {
		t.Errorf("Expected key 'email.smtp.host', got '%s'", r.Key)
	}
	if r.Environment != "DEV" {
		t.Errorf("Expected environment 'DEV', got '%s'", r.Environment)
	}
	if r.Value != "mail****" {
		t.Errorf("Expected value 'mail****', got '%s'", r.Value)
	}
	if !r.Found {
		t.Error("Expected found=true")
	}
	if r.RequestID != "req-evt-1" {
		t.Errorf("Expected request ID 'req-evt-1', got '%s'", r.RequestID)
	}
}

// TestSQLiteStorage_StoreWithoutRequestID tests that empty request IDs round-trip.
func TestSQLiteStorage_StoreWithoutRequestID(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	event := makeEvent("evt-1", time.Now().UTC())
	event.RequestID = ""

	if err := storage.Store(ctx, event); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := storage.Query(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(results))
	}
	if results[0].RequestID != "" {
		t.Errorf("Expected empty request ID, got '%s'", results[0].RequestID)
	}
}

// TestSQLiteStorage_QueryWithTimeRange tests time range filtering.
func TestSQLiteStorage_QueryWithTimeRange(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	events := []*audit.Event{
		makeEvent("old", now.Add(-2*time.Hour)),
		makeEvent("recent", now.Add(-30*time.Minute)),
		makeEvent("new", now),
	}
	for _, event := range events {
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	startTime := now.Add(-1 * time.Hour)
	results, err := storage.Query(ctx, &audit.Query{StartTime: &startTime})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if len(results) != 2 {
		t.Errorf("Expected 2 events, got %d", len(results))
	}
	for _, r := range results {
		if r.ID == "old" {
			t.Error("Old event should not be in results")
		}
	}
}

// TestSQLiteStorage_QueryWithFilters tests various filter combinations.
func TestSQLiteStorage_QueryWithFilters(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	events := []*audit.Event{
		{
			ID: "evt-1", Timestamp: now, Key: "email.smtp.host",
			Environment: "DEV", Source: "environment", Category: "INTERNAL",
			Value: "mail****", Found: true, RequestID: "req-1",
		},
		{
			ID: "evt-2", Timestamp: now, Key: "email.smtp.password",
			Environment: "PROD", Source: "environment", Category: "CREDENTIAL",
			Value: "******", Found: true, RequestID: "req-2",
		},
		{
			ID: "evt-3", Timestamp: now, Key: "billing.api.url",
			Environment: "DEV", Source: "global", Category: "INTERNAL",
			Value: "http****", Found: true, RequestID: "req-1",
		},
		{
			ID: "evt-4", Timestamp: now, Key: "email.retry.attempts",
			Environment: "DEV", Source: "default", Category: "GENERAL",
			Value: "", Found: false, RequestID: "req-3",
		},
	}
	for _, event := range events {
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	tests := []struct {
		name          string
		query         *audit.Query
		expectedCount int
	}{
		{
			name:          "filter by key",
			query:         &audit.Query{Key: "email.smtp.host"},
			expectedCount: 1,
		},
		{
			name:          "filter by key prefix",
			query:         &audit.Query{KeyPrefix: "email.smtp."},
			expectedCount: 2,
		},
		{
			name:          "filter by environment",
			query:         &audit.Query{Environment: "DEV"},
			expectedCount: 3,
		},
		{
			name:          "filter by source",
			query:         &audit.Query{Source: "environment"},
			expectedCount: 2,
		},
		{
			name:          "filter by category",
			query:         &audit.Query{Category: "CREDENTIAL"},
			expectedCount: 1,
		},
		{
			name:          "filter by request id",
			query:         &audit.Query{RequestID: "req-1"},
			expectedCount: 2,
		},
		{
			name:          "combined filters",
			query:         &audit.Query{Environment: "DEV", Category: "INTERNAL"},
			expectedCount: 2,
		},
		{
			name:          "no match",
			query:         &audit.Query{Environment: "STAGING"},
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := storage.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(results) != tt.expectedCount {
				t.Errorf("Expected %d events, got %d", tt.expectedCount, len(results))
			}
		})
	}
}

// TestSQLiteStorage_KeyPrefixEscaping tests that LIKE wildcards in a
// prefix filter match literally.
func TestSQLiteStorage_KeyPrefixEscaping(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	literal := makeEvent("literal", now)
	literal.Key = "report_daily.path"
	other := makeEvent("other", now)
	other.Key = "reportsdaily.path"

	for _, event := range []*audit.Event{literal, other} {
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// An unescaped underscore would match both keys.
	results, err := storage.Query(ctx, &audit.Query{KeyPrefix: "report_daily"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(results))
	}
	if results[0].ID != "literal" {
		t.Errorf("Expected event 'literal', got '%s'", results[0].ID)
	}
}

// TestSQLiteStorage_QueryWithSorting tests ascending and descending ordering.
func TestSQLiteStorage_QueryWithSorting(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 3; i++ {
		event := makeEvent(fmt.Sprintf("evt-%d", i), now.Add(time.Duration(i)*time.Minute))
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// Default order is newest first.
	results, err := storage.Query(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(results))
	}
	if results[0].ID != "evt-2" {
		t.Errorf("Expected newest event first, got '%s'", results[0].ID)
	}

	results, err = storage.Query(ctx, &audit.Query{SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if results[0].ID != "evt-0" {
		t.Errorf("Expected oldest event first, got '%s'", results[0].ID)
	}
}

// TestSQLiteStorage_QueryWithPagination tests limit and offset.
func TestSQLiteStorage_QueryWithPagination(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 10; i++ {
		event := makeEvent(fmt.Sprintf("evt-%d", i), now.Add(time.Duration(i)*time.Second))
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	page1, err := storage.Query(ctx, &audit.Query{Limit: 3, SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(page1) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(page1))
	}
	if page1[0].ID != "evt-0" {
		t.Errorf("Expected first page to start at 'evt-0', got '%s'", page1[0].ID)
	}

	page2, err := storage.Query(ctx, &audit.Query{Limit: 3, Offset: 3, SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(page2) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(page2))
	}
	if page2[0].ID != "evt-3" {
		t.Errorf("Expected second page to start at 'evt-3', got '%s'", page2[0].ID)
	}
}

// TestSQLiteStorage_InvalidQuery tests that validation errors are surfaced.
func TestSQLiteStorage_InvalidQuery(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	_, err := storage.Query(ctx, &audit.Query{Limit: -1})
	if err == nil {
		t.Error("Expected error for negative limit, got nil")
	}
}

// TestSQLiteStorage_Count tests counting with filters.
func TestSQLiteStorage_Count(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	for i := 0; i < 5; i++ {
		event := makeEvent(fmt.Sprintf("evt-%d", i), now)
		if i%2 == 0 {
			event.Environment = "PROD"
		}
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	total, err := storage.Count(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total count 5, got %d", total)
	}

	prod, err := storage.Count(ctx, &audit.Query{Environment: "PROD"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if prod != 3 {
		t.Errorf("Expected PROD count 3, got %d", prod)
	}
}

// TestSQLiteStorage_DeleteBefore tests cutoff-based pruning.
func TestSQLiteStorage_DeleteBefore(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	events := []*audit.Event{
		makeEvent("ancient", now.Add(-48*time.Hour)),
		makeEvent("old", now.Add(-25*time.Hour)),
		makeEvent("fresh", now),
	}
	for _, event := range events {
		if err := storage.Store(ctx, event); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	deleted, err := storage.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted events, got %d", deleted)
	}

	remaining, err := storage.Count(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if remaining != 1 {
		t.Errorf("Expected 1 remaining event, got %d", remaining)
	}
}

// TestSQLiteStorage_ConcurrentWrites tests concurrent stores do not corrupt state.
func TestSQLiteStorage_ConcurrentWrites(t *testing.T) {
	storage, _ := createTempDB(t)
	defer storage.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	const writers = 10
	const perWriter = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				event := makeEvent(fmt.Sprintf("evt-%d-%d", w, i), now)
				if err := storage.Store(ctx, event); err != nil {
					t.Errorf("Store() failed: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	count, err := storage.Count(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != writers*perWriter {
		t.Errorf("Expected %d events, got %d", writers*perWriter, count)
	}
}

// TestSQLiteStorage_Close tests that Close is idempotent.
func TestSQLiteStorage_Close(t *testing.T) {
	storage, _ := createTempDB(t)

	if err := storage.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if err := storage.Close(); err != nil {
		t.Errorf("Second Close() failed: %v", err)
	}
}
