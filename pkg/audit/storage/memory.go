package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian-hq/stratum/pkg/audit"
)

// MemoryStorage implements audit.Storage in memory. Events are kept in
// insertion order and filtered on query. Intended for tests and small
// deployments that do not need durable audit history.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []*audit.Event
}

// NewMemoryStorage creates an empty in-memory audit backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		events: []*audit.Event{},
	}
}

// Store appends one audit event.
func (m *MemoryStorage) Store(ctx context.Context, event *audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *event
	m.events = append(m.events, &copied)
	return nil
}

// Query retrieves audit events matching the query filters.
func (m *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Event, error) {
	if err := query.Validate(); err != nil {
		return nil, audit.NewStorageError("memory", "query", err)
	}

	m.mu.RLock()
	matched := []*audit.Event{}
	for _, event := range m.events {
		if matchesQuery(event, query) {
			copied := *event
			matched = append(matched, &copied)
		}
	}
	m.mu.RUnlock()

	ascending := query.SortOrder == "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		if ascending {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		}
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if query.Offset > 0 {
		if query.Offset >= len(matched) {
			return []*audit.Event{}, nil
		}
		matched = matched[query.Offset:]
	}

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, nil
}

// Count returns the number of events matching the query filters.
func (m *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	if err := query.Validate(); err != nil {
		return 0, audit.NewStorageError("memory", "count", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, event := range m.events {
		if matchesQuery(event, query) {
			count++
		}
	}
	return count, nil
}

// DeleteBefore removes events recorded strictly before the cutoff.
func (m *MemoryStorage) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	var deleted int64
	for _, event := range m.events {
		if event.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	m.events = kept
	return deleted, nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStorage) Close() error {
	return nil
}

// Len returns the number of stored events.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// matchesQuery reports whether the event passes every filter in the query.
func matchesQuery(event *audit.Event, query *audit.Query) bool {
	if query.StartTime != nil && event.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && event.Timestamp.After(*query.EndTime) {
		return false
	}
	if query.Key != "" && event.Key != query.Key {
		return false
	}
	if query.KeyPrefix != "" && !strings.HasPrefix(event.Key, query.KeyPrefix) {
		return false
	}
	if query.Environment != "" && event.Environment != query.Environment {
		return false
	}
	if query.Source != "" && event.Source != query.Source {
		return false
	}
	if query.Category != "" && event.Category != query.Category {
		return false
	}
	if query.RequestID != "" && event.RequestID != query.RequestID {
		return false
	}
	return true
}
