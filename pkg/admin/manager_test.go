package admin

import (
	"context"
	"testing"
	"time"

	"meridian-hq/stratum/internal/storetest"
	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/resolver"
)

// adminHarness bundles a manager with the resolvers and store behind it.
type adminHarness struct {
	manager *Manager
	store   *storetest.MockStore
	config  *resolver.Resolver
	env     *environment.Resolver
}

// newAdminHarness builds a manager over real resolvers backed by a mock
// store seeded with DEV (id 1) and PROD (id 2), pinned to DEV.
func newAdminHarness(t *testing.T, ttl time.Duration) *adminHarness {
	t.Helper()

	mock := storetest.NewMockStore()
	mock.AddEnvironment(1, "DEV")
	mock.AddEnvironment(2, "PROD")

	detector := environment.NewDetector(&environment.DetectorConfig{
		Lookup: func(string) (string, bool) { return "", false },
	})
	envResolver := environment.NewResolver(mock, &environment.Config{
		Detector: detector,
		TTL:      ttl,
	})
	envResolver.SetOverride("DEV")

	configResolver := resolver.New(mock, envResolver, &resolver.Config{TTL: ttl})

	return &adminHarness{
		manager: NewManager(configResolver, envResolver),
		store:   mock,
		config:  configResolver,
		env:     envResolver,
	}
}

// populate resolves one key so both caches hold an entry.
func (h *adminHarness) populate(t *testing.T) {
	t.Helper()
	h.store.AddEntry("motd.text", "welcome", nil)
	if _, err := h.config.GetString(context.Background(), "motd.text", ""); err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
}

func TestManager_Stats_Empty(t *testing.T) {
	h := newAdminHarness(t, 5*time.Minute)

	stats := h.manager.Stats()

	if stats.ConfigCacheSize != 0 {
		t.Errorf("Expected config cache size 0, got %d", stats.ConfigCacheSize)
	}
	if stats.EnvironmentCacheSize != 0 {
		t.Errorf("Expected environment cache size 0, got %d", stats.EnvironmentCacheSize)
	}
	if stats.TTLMinutes != 5 {
		t.Errorf("Expected TTL 5 minutes, got %d", stats.TTLMinutes)
	}
	if len(stats.ConfigCacheKeys) != 0 {
		t.Errorf("Expected no cache keys, got %v", stats.ConfigCacheKeys)
	}
}

func TestManager_Stats_Populated(t *testing.T) {
	h := newAdminHarness(t, 5*time.Minute)
	h.populate(t)

	stats := h.manager.Stats()

	if stats.ConfigCacheSize != 1 {
		t.Errorf("Expected config cache size 1, got %d", stats.ConfigCacheSize)
	}
	if stats.EnvironmentCacheSize != 1 {
		t.Errorf("Expected environment cache size 1, got %d", stats.EnvironmentCacheSize)
	}
	if len(stats.ConfigCacheKeys) != 1 || stats.ConfigCacheKeys[0] != "motd.text:DEV" {
		t.Errorf("Expected cache keys [motd.text:DEV], got %v", stats.ConfigCacheKeys)
	}
	if id, ok := stats.EnvironmentCacheEntries["DEV"]; !ok || id != 1 {
		t.Errorf("Expected DEV cached with id 1, got %v", stats.EnvironmentCacheEntries)
	}
}

func TestManager_ClearCaches(t *testing.T) {
	h := newAdminHarness(t, 5*time.Minute)
	h.populate(t)

	result := h.manager.ClearCaches()

	if result.ConfigEntries != 1 {
		t.Errorf("Expected 1 config entry cleared, got %d", result.ConfigEntries)
	}
	if result.EnvironmentEntries != 1 {
		t.Errorf("Expected 1 environment entry cleared, got %d", result.EnvironmentEntries)
	}
	if result.Total() != 2 {
		t.Errorf("Expected total 2, got %d", result.Total())
	}

	stats := h.manager.Stats()
	if stats.ConfigCacheSize != 0 || stats.EnvironmentCacheSize != 0 {
		t.Errorf("Expected empty caches after clear, got %d/%d",
			stats.ConfigCacheSize, stats.EnvironmentCacheSize)
	}
}

func TestManager_ClearCaches_RepopulatesLazily(t *testing.T) {
	h := newAdminHarness(t, 5*time.Minute)
	h.populate(t)
	h.manager.ClearCaches()
	h.store.ResetCounts()

	value, err := h.config.GetString(context.Background(), "motd.text", "")
	if err != nil {
		t.Fatalf("GetString failed: %v", err)
	}
	if value != "welcome" {
		t.Errorf("Expected welcome, got %s", value)
	}
	if h.store.FindActiveCalls() == 0 {
		t.Error("Expected store to be consulted after clear")
	}
	if h.manager.Stats().ConfigCacheSize != 1 {
		t.Error("Expected cache repopulated after resolution")
	}
}

func TestManager_RefreshConfiguration(t *testing.T) {
	h := newAdminHarness(t, 5*time.Minute)
	h.populate(t)

	result := h.manager.RefreshConfiguration()

	if result.ConfigEntries != 1 || result.EnvironmentEntries != 1 {
		t.Errorf("Expected both caches cleared, got %+v", result)
	}
	if h.manager.Stats().ConfigCacheSize != 0 {
		t.Error("Expected empty config cache after refresh")
	}
}

func TestManager_ClearExpired(t *testing.T) {
	h := newAdminHarness(t, 50*time.Millisecond)
	h.populate(t)

	// Entries still fresh; nothing to remove.
	result := h.manager.ClearExpired()
	if result.Total() != 0 {
		t.Errorf("Expected no expired entries, got %+v", result)
	}

	time.Sleep(80 * time.Millisecond)

	result = h.manager.ClearExpired()
	if result.ConfigEntries != 1 {
		t.Errorf("Expected 1 expired config entry, got %d", result.ConfigEntries)
	}
	if result.EnvironmentEntries != 1 {
		t.Errorf("Expected 1 expired environment entry, got %d", result.EnvironmentEntries)
	}

	stats := h.manager.Stats()
	if stats.ConfigCacheSize != 0 || stats.EnvironmentCacheSize != 0 {
		t.Errorf("Expected empty caches after sweep, got %d/%d",
			stats.ConfigCacheSize, stats.EnvironmentCacheSize)
	}
}

func TestManager_ClearExpired_KeepsFreshEntries(t *testing.T) {
	h := newAdminHarness(t, 5*time.Minute)
	h.populate(t)

	result := h.manager.ClearExpired()

	if result.Total() != 0 {
		t.Errorf("Expected fresh entries untouched, got %+v", result)
	}
	if h.manager.Stats().ConfigCacheSize != 1 {
		t.Error("Expected fresh entry to survive the sweep")
	}
}
