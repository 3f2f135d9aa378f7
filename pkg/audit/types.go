package audit

import (
	"context"
	"fmt"
	"time"
)

// Event is one audited configuration resolution.
type Event struct {
	// ID is the unique event identifier (UUID).
	ID string `json:"id"`

	// Timestamp is when the resolution was observed.
	Timestamp time.Time `json:"timestamp"`

	// Key is the configuration key that was resolved.
	Key string `json:"key"`

	// Environment is the active environment code at resolution time.
	Environment string `json:"environment"`

	// Source is the tier that answered: cache, environment, global,
	// process-env, or default.
	Source string `json:"source"`

	// Category is the key's sensitivity classification.
	Category string `json:"category"`

	// Value is the resolved value with masking already applied per
	// Category. Empty when the key was not found.
	Value string `json:"value"`

	// Found reports whether any tier produced a value.
	Found bool `json:"found"`

	// RequestID correlates the event with an inbound request, when one
	// was in flight.
	RequestID string `json:"request_id,omitempty"`
}

// Query filters audit events.
type Query struct {
	// Time range, inclusive on both ends.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters; empty fields do not constrain the result.
	Key         string `json:"key,omitempty"`
	KeyPrefix   string `json:"key_prefix,omitempty"`
	Environment string `json:"environment,omitempty"`
	Source      string `json:"source,omitempty"`
	Category    string `json:"category,omitempty"`
	RequestID   string `json:"request_id,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder orders by timestamp: "asc" or "desc". Default: "desc"
	SortOrder string `json:"sort_order,omitempty"`
}

// Validate checks the query for unusable field values.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative: %d", q.Limit)
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset cannot be negative: %d", q.Offset)
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		return fmt.Errorf("unknown sort order %q", q.SortOrder)
	}
	if q.StartTime != nil && q.EndTime != nil && q.EndTime.Before(*q.StartTime) {
		return fmt.Errorf("end time %v precedes start time %v", q.EndTime, q.StartTime)
	}
	return nil
}

// Storage is the persistence interface for audit events.
type Storage interface {
	// Store persists one event.
	Store(ctx context.Context, event *Event) error

	// Query retrieves events matching the query filters. Returns an empty
	// slice when nothing matches.
	Query(ctx context.Context, query *Query) ([]*Event, error)

	// Count returns the number of events matching the query filters,
	// ignoring pagination.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes events recorded strictly before the cutoff and
	// returns the number removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases the backend.
	Close() error
}
