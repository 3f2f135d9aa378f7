package environment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"meridian-hq/stratum/internal/storetest"
	"meridian-hq/stratum/pkg/store"
)

func newTestResolver(t *testing.T, code string, cfg *Config) (*Resolver, *storetest.MockStore) {
	t.Helper()

	mock := storetest.NewMockStore()
	mock.AddEnvironment(1, "DEV")
	mock.AddEnvironment(2, "PROD")

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Detector == nil {
		cfg.Detector = NewDetector(&DetectorConfig{
			Lookup: func(string) (string, bool) { return "", false },
		})
	}
	resolver := NewResolver(mock, cfg)
	if code != "" {
		resolver.SetOverride(code)
	}
	return resolver, mock
}

func TestDetector_Code_SourceOrder(t *testing.T) {
	env := map[string]string{"STRATUM_ENV": "uat"}
	detector := NewDetector(&DetectorConfig{
		Lookup: func(name string) (string, bool) {
			value, ok := env[name]
			return value, ok
		},
	})

	// Variable wins over fallback
	if code := detector.Code(); code != "UAT" {
		t.Errorf("Expected UAT from variable, got %s", code)
	}

	// Override wins over variable
	detector.SetOverride("dev")
	if code := detector.Code(); code != "DEV" {
		t.Errorf("Expected DEV from override, got %s", code)
	}

	// Clearing the override falls back to the variable
	detector.ClearOverride()
	if code := detector.Code(); code != "UAT" {
		t.Errorf("Expected UAT after override cleared, got %s", code)
	}

	// No sources at all falls back to PROD
	delete(env, "STRATUM_ENV")
	if code := detector.Code(); code != "PROD" {
		t.Errorf("Expected PROD fallback, got %s", code)
	}
}

func TestDetector_Code_BlankVariable(t *testing.T) {
	detector := NewDetector(&DetectorConfig{
		Lookup: func(string) (string, bool) { return "   ", true },
	})

	if code := detector.Code(); code != "PROD" {
		t.Errorf("Expected PROD for blank variable, got %s", code)
	}
}

func TestDetector_Code_Normalizes(t *testing.T) {
	detector := NewDetector(&DetectorConfig{
		Lookup: func(string) (string, bool) { return "  dev ", true },
	})

	if code := detector.Code(); code != "DEV" {
		t.Errorf("Expected normalized DEV, got %s", code)
	}
}

func TestDetector_CustomVariableAndFallback(t *testing.T) {
	detector := NewDetector(&DetectorConfig{
		Variable: "MY_ENV",
		Fallback: "uat",
		Lookup: func(name string) (string, bool) {
			if name == "MY_ENV" {
				return "qa", true
			}
			return "", false
		},
	})

	if code := detector.Code(); code != "QA" {
		t.Errorf("Expected QA from custom variable, got %s", code)
	}

	detector = NewDetector(&DetectorConfig{
		Variable: "MY_ENV",
		Fallback: "uat",
		Lookup:   func(string) (string, bool) { return "", false },
	})
	if code := detector.Code(); code != "UAT" {
		t.Errorf("Expected normalized custom fallback UAT, got %s", code)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dev", "DEV"},
		{" Prod ", "PROD"},
		{"", ""},
		{"  ", ""},
		{"UAT", "UAT"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_ResolveID(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	id, err := resolver.ResolveID(context.Background(), "DEV")
	if err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected id 1, got %d", id)
	}
}

func TestResolver_ResolveID_CaseInsensitive(t *testing.T) {
	resolver, mock := newTestResolver(t, "", nil)

	for _, code := range []string{"dev", "DEV", "Dev", " dev "} {
		id, err := resolver.ResolveID(context.Background(), code)
		if err != nil {
			t.Fatalf("ResolveID(%q) failed: %v", code, err)
		}
		if id != 1 {
			t.Errorf("ResolveID(%q) = %d, want 1", code, id)
		}
	}

	// All casings share one cache entry, so only the first call queried
	if calls := mock.FindEnvironmentCalls(); calls != 1 {
		t.Errorf("Expected 1 store query across casings, got %d", calls)
	}
	if size := resolver.CacheSize(); size != 1 {
		t.Errorf("Expected 1 cache entry, got %d", size)
	}
}

func TestResolver_ResolveID_CachesResult(t *testing.T) {
	resolver, mock := newTestResolver(t, "", nil)

	for i := 0; i < 3; i++ {
		if _, err := resolver.ResolveID(context.Background(), "PROD"); err != nil {
			t.Fatalf("ResolveID failed: %v", err)
		}
	}

	if calls := mock.FindEnvironmentCalls(); calls != 1 {
		t.Errorf("Expected 1 store query, got %d", calls)
	}
}

func TestResolver_ResolveID_NotFound(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	_, err := resolver.ResolveID(context.Background(), "STAGING")
	if err == nil {
		t.Fatal("Expected error for unknown code")
	}
	if !IsNotFound(err) {
		t.Errorf("Expected NotFoundError, got %T: %v", err, err)
	}

	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Code != "STAGING" {
		t.Errorf("Expected code STAGING in error, got %s", nf.Code)
	}
}

func TestResolver_ResolveID_NotFoundNotCached(t *testing.T) {
	resolver, mock := newTestResolver(t, "", nil)

	for i := 0; i < 2; i++ {
		if _, err := resolver.ResolveID(context.Background(), "STAGING"); !IsNotFound(err) {
			t.Fatalf("Expected NotFoundError, got %v", err)
		}
	}

	// Misses are not cached for identity lookups
	if calls := mock.FindEnvironmentCalls(); calls != 2 {
		t.Errorf("Expected 2 store queries, got %d", calls)
	}
	if size := resolver.CacheSize(); size != 0 {
		t.Errorf("Expected empty cache, got %d entries", size)
	}
}

func TestResolver_ResolveID_EmptyCode(t *testing.T) {
	resolver, mock := newTestResolver(t, "", nil)

	if _, err := resolver.ResolveID(context.Background(), "  "); !IsNotFound(err) {
		t.Errorf("Expected NotFoundError for blank code, got %v", err)
	}
	if calls := mock.FindEnvironmentCalls(); calls != 0 {
		t.Errorf("Expected no store query for blank code, got %d", calls)
	}
}

func TestResolver_ResolveID_StoreFailurePropagates(t *testing.T) {
	resolver, mock := newTestResolver(t, "", nil)
	mock.SetFailure(fmt.Errorf("connection refused"))

	_, err := resolver.ResolveID(context.Background(), "DEV")
	if err == nil {
		t.Fatal("Expected error from failing store")
	}

	var storeErr *store.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Expected StoreError, got %T: %v", err, err)
	}
	if IsNotFound(err) {
		t.Error("Store failure must not look like a missing environment")
	}
}

func TestResolver_ResolveID_TTLExpiry(t *testing.T) {
	resolver, mock := newTestResolver(t, "", &Config{TTL: 50 * time.Millisecond})

	if _, err := resolver.ResolveID(context.Background(), "DEV"); err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := resolver.ResolveID(context.Background(), "DEV"); err != nil {
		t.Fatalf("ResolveID after expiry failed: %v", err)
	}
	if calls := mock.FindEnvironmentCalls(); calls != 2 {
		t.Errorf("Expected expired entry to re-query, got %d queries", calls)
	}
}

func TestResolver_CurrentCode(t *testing.T) {
	resolver, _ := newTestResolver(t, "dev", nil)

	if code := resolver.CurrentCode(); code != "DEV" {
		t.Errorf("Expected DEV, got %s", code)
	}
}

func TestResolver_CurrentCode_DefaultsToProd(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	if code := resolver.CurrentCode(); code != "PROD" {
		t.Errorf("Expected PROD default, got %s", code)
	}
}

func TestResolver_CurrentID(t *testing.T) {
	resolver, _ := newTestResolver(t, "DEV", nil)

	id, err := resolver.CurrentID(context.Background())
	if err != nil {
		t.Fatalf("CurrentID failed: %v", err)
	}
	if id != 1 {
		t.Errorf("Expected id 1, got %d", id)
	}
}

func TestResolver_CurrentID_UnresolvableIsFatal(t *testing.T) {
	resolver, _ := newTestResolver(t, "STAGING", nil)

	id, err := resolver.CurrentID(context.Background())
	if err == nil {
		t.Fatal("Expected error for unresolvable environment")
	}
	if id != 0 {
		t.Errorf("Expected zero id on failure, got %d", id)
	}

	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("Expected ResolutionError, got %T: %v", err, err)
	}
	if re.Code != "STAGING" {
		t.Errorf("Expected code STAGING in error, got %s", re.Code)
	}
	if !IsNotFound(err) {
		t.Error("Expected NotFoundError in the chain")
	}
}

func TestResolver_CurrentID_StoreFailureStaysDistinct(t *testing.T) {
	resolver, mock := newTestResolver(t, "DEV", nil)
	mock.SetFailure(fmt.Errorf("connection refused"))

	_, err := resolver.CurrentID(context.Background())
	if err == nil {
		t.Fatal("Expected error from failing store")
	}

	var storeErr *store.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Expected StoreError, got %T: %v", err, err)
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		t.Error("Store failure must not be reported as a resolution error")
	}
}

func TestResolver_Exists(t *testing.T) {
	resolver, mock := newTestResolver(t, "", nil)

	if !resolver.Exists(context.Background(), "DEV") {
		t.Error("Expected DEV to exist")
	}
	if !resolver.Exists(context.Background(), "prod") {
		t.Error("Expected prod to exist (case-insensitive)")
	}
	if resolver.Exists(context.Background(), "STAGING") {
		t.Error("Expected STAGING to not exist")
	}

	// Never errors, even when the store fails
	mock.SetFailure(fmt.Errorf("connection refused"))
	if resolver.Exists(context.Background(), "UAT") {
		t.Error("Expected false when the store fails")
	}
}

func TestResolver_ClearCache(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	if _, err := resolver.ResolveID(context.Background(), "DEV"); err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}
	if _, err := resolver.ResolveID(context.Background(), "PROD"); err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}

	if removed := resolver.ClearCache(); removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}
	if size := resolver.CacheSize(); size != 0 {
		t.Errorf("Expected empty cache, got %d", size)
	}

	// Clearing twice is safe
	if removed := resolver.ClearCache(); removed != 0 {
		t.Errorf("Expected 0 removed on second clear, got %d", removed)
	}
}

func TestResolver_RemoveExpired(t *testing.T) {
	resolver, _ := newTestResolver(t, "", &Config{TTL: 50 * time.Millisecond})

	if _, err := resolver.ResolveID(context.Background(), "DEV"); err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// PROD is fresh, DEV has expired
	if _, err := resolver.ResolveID(context.Background(), "PROD"); err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}

	if removed := resolver.RemoveExpired(); removed != 1 {
		t.Errorf("Expected 1 expired entry removed, got %d", removed)
	}
	if size := resolver.CacheSize(); size != 1 {
		t.Errorf("Expected 1 fresh entry to remain, got %d", size)
	}
}

func TestResolver_CacheEntries(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	if _, err := resolver.ResolveID(context.Background(), "dev"); err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}

	entries := resolver.CacheEntries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries["DEV"] != 1 {
		t.Errorf("Expected DEV=1, got %v", entries)
	}

	// The snapshot is a copy
	entries["DEV"] = 99
	if resolver.CacheEntries()["DEV"] != 1 {
		t.Error("Mutating the snapshot must not affect the cache")
	}
}

func TestResolver_DefaultTTL(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	if ttl := resolver.TTL(); ttl != 5*time.Minute {
		t.Errorf("Expected 5m default TTL, got %v", ttl)
	}
}

func TestResolver_ConcurrentResolve(t *testing.T) {
	resolver, _ := newTestResolver(t, "", nil)

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				_, _ = resolver.ResolveID(context.Background(), "DEV")
				_ = resolver.Exists(context.Background(), "PROD")
				resolver.CacheSize()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if id, err := resolver.ResolveID(context.Background(), "DEV"); err != nil || id != 1 {
		t.Errorf("Expected id 1 after concurrent access, got %d (err %v)", id, err)
	}
}
