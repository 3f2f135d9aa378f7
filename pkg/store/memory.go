package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store using in-process slices. All data is lost
// when the process exits. Intended for tests and local runs seeded from a
// document.
//
// MemoryStore is thread-safe and supports concurrent access using sync.RWMutex.
type MemoryStore struct {
	mu           sync.RWMutex
	environments []Environment
	entries      []Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FindActive retrieves the active entry for a key in one environment tier.
func (m *MemoryStore) FindActive(ctx context.Context, key string, environmentID *int64) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.entries {
		entry := &m.entries[i]
		if !entry.IsActive || entry.Key != key {
			continue
		}
		if !sameTier(entry.EnvironmentID, environmentID) {
			continue
		}
		found := *entry
		return &found, nil
	}

	return nil, nil
}

// FindActiveByPrefix retrieves active entries whose key starts with prefix
// in one environment tier, ordered by key.
func (m *MemoryStore) FindActiveByPrefix(ctx context.Context, prefix string, environmentID *int64) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := []*Entry{}
	for i := range m.entries {
		entry := &m.entries[i]
		if !entry.IsActive || !strings.HasPrefix(entry.Key, prefix) {
			continue
		}
		if !sameTier(entry.EnvironmentID, environmentID) {
			continue
		}
		found := *entry
		matches = append(matches, &found)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Key < matches[j].Key
	})

	return matches, nil
}

// FindEnvironmentByCode retrieves an environment by code, case-insensitively.
func (m *MemoryStore) FindEnvironmentByCode(ctx context.Context, code string) (*Environment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.environments {
		if strings.EqualFold(m.environments[i].Code, code) {
			found := m.environments[i]
			return &found, nil
		}
	}

	return nil, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close releases nothing; the store remains usable. Present to satisfy the
// Store interface.
func (m *MemoryStore) Close() error {
	return nil
}

// ReplaceSeed replaces all environments and entries atomically.
// This is the write path used by the seed package; it is deliberately not
// part of the Store interface.
func (m *MemoryStore) ReplaceSeed(ctx context.Context, envs []Environment, entries []Entry) error {
	newEnvs := make([]Environment, len(envs))
	copy(newEnvs, envs)
	newEntries := make([]Entry, len(entries))
	copy(newEntries, entries)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.environments = newEnvs
	m.entries = newEntries

	return nil
}

// sameTier reports whether an entry's environment association matches the
// requested tier: both nil (global) or both the same id.
func sameTier(entryEnv, requested *int64) bool {
	if entryEnv == nil || requested == nil {
		return entryEnv == nil && requested == nil
	}
	return *entryEnv == *requested
}
