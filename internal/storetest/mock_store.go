// Package storetest provides a mock store.Store for resolver and cache
// tests: fixed in-memory rows, per-query call counting, and failure
// injection.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian-hq/stratum/pkg/store"
)

// MockStore is a mock implementation of the store.Store interface for
// testing. Rows are held in memory; every query bumps a counter so tests
// can assert how often the store was consulted.
type MockStore struct {
	mu           sync.Mutex
	environments []store.Environment
	entries      []store.Entry
	failErr      error

	findActiveCalls      int
	findByPrefixCalls    int
	findEnvironmentCalls int
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// EnvID returns a pointer to an environment id, for building entries.
func EnvID(id int64) *int64 {
	return &id
}

// AddEnvironment registers an environment row.
func (m *MockStore) AddEnvironment(id int64, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.environments = append(m.environments, store.Environment{
		ID:          id,
		Code:        code,
		DisplayName: code,
	})
}

// AddEntry registers an active STRING entry. A nil environmentID makes the
// entry global.
func (m *MockStore) AddEntry(key, value string, environmentID *int64) {
	m.AddTypedEntry(key, value, environmentID, store.DataTypeString)
}

// AddTypedEntry registers an active entry with an explicit data type.
func (m *MockStore) AddTypedEntry(key, value string, environmentID *int64, dataType store.DataType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, store.Entry{
		ID:            int64(len(m.entries) + 1),
		Key:           key,
		Value:         value,
		EnvironmentID: environmentID,
		DataType:      dataType,
		Category:      "GENERAL",
		IsActive:      true,
		UpdatedAt:     time.Now(),
	})
}

// RemoveEntry deletes the entry matching (key, environmentID), if any.
func (m *MockStore) RemoveEntry(key string, environmentID *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.Key == key && sameTier(entry.EnvironmentID, environmentID) {
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept
}

// SetFailure makes every subsequent query fail with a store error wrapping
// err. Pass nil to restore normal behavior.
func (m *MockStore) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// FindActiveCalls returns how many times FindActive was invoked.
func (m *MockStore) FindActiveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findActiveCalls
}

// FindByPrefixCalls returns how many times FindActiveByPrefix was invoked.
func (m *MockStore) FindByPrefixCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByPrefixCalls
}

// FindEnvironmentCalls returns how many times FindEnvironmentByCode was
// invoked.
func (m *MockStore) FindEnvironmentCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findEnvironmentCalls
}

// ResetCounts zeroes all call counters.
func (m *MockStore) ResetCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findActiveCalls = 0
	m.findByPrefixCalls = 0
	m.findEnvironmentCalls = 0
}

// FindActive implements store.Store.
func (m *MockStore) FindActive(ctx context.Context, key string, environmentID *int64) (*store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findActiveCalls++
	if m.failErr != nil {
		return nil, store.NewStoreError("mock", "find_active", m.failErr)
	}

	for _, entry := range m.entries {
		if entry.IsActive && entry.Key == key && sameTier(entry.EnvironmentID, environmentID) {
			out := entry
			return &out, nil
		}
	}
	return nil, nil
}

// FindActiveByPrefix implements store.Store.
func (m *MockStore) FindActiveByPrefix(ctx context.Context, prefix string, environmentID *int64) ([]*store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findByPrefixCalls++
	if m.failErr != nil {
		return nil, store.NewStoreError("mock", "find_active_by_prefix", m.failErr)
	}

	var out []*store.Entry
	for _, entry := range m.entries {
		if entry.IsActive && strings.HasPrefix(entry.Key, prefix) && sameTier(entry.EnvironmentID, environmentID) {
			copied := entry
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// FindEnvironmentByCode implements store.Store.
func (m *MockStore) FindEnvironmentByCode(ctx context.Context, code string) (*store.Environment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findEnvironmentCalls++
	if m.failErr != nil {
		return nil, store.NewStoreError("mock", "find_environment", m.failErr)
	}

	for _, env := range m.environments {
		if strings.EqualFold(env.Code, code) {
			out := env
			return &out, nil
		}
	}
	return nil, nil
}

// Ping implements store.Store.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return store.NewStoreError("mock", "ping", m.failErr)
	}
	return nil
}

// Close implements store.Store.
func (m *MockStore) Close() error {
	return nil
}

func sameTier(entryEnv, requested *int64) bool {
	if entryEnv == nil || requested == nil {
		return entryEnv == nil && requested == nil
	}
	return *entryEnv == *requested
}
