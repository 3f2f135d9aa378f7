package resolver

import (
	"context"
	"sort"
	"strings"
)

// Section is the ordered result of a prefix query: key suffixes mapped to
// raw values, with environment-specific entries overriding global entries
// that share a suffix.
type Section struct {
	prefix   string
	suffixes []string
	values   map[string]string
}

// Prefix returns the normalized prefix the section was queried with.
func (s *Section) Prefix() string {
	return s.prefix
}

// Len returns the number of entries in the section.
func (s *Section) Len() int {
	return len(s.suffixes)
}

// Suffixes returns the key suffixes in sorted order.
func (s *Section) Suffixes() []string {
	out := make([]string, len(s.suffixes))
	copy(out, s.suffixes)
	return out
}

// Get returns the value for a suffix.
func (s *Section) Get(suffix string) (string, bool) {
	value, ok := s.values[suffix]
	return value, ok
}

// Map returns a copy of the suffix-to-value mapping.
func (s *Section) Map() map[string]string {
	out := make(map[string]string, len(s.values))
	for suffix, value := range s.values {
		out[suffix] = value
	}
	return out
}

// GetSection returns all active configuration under a prefix in the
// current environment, falling back to global entries for suffixes the
// environment does not override.
//
// The prefix is normalized to its dotted form: "email.smtp" and
// "email.smtp." query the same section, and suffixes never include the
// prefix or its trailing dot. An empty prefix returns every key, with the
// full key as the suffix.
//
// Unlike single-key resolution this path is never cached and issues
// exactly one store query per tier. The error contract matches Resolve.
func (r *Resolver) GetSection(ctx context.Context, prefix string) (*Section, error) {
	normalized := strings.TrimRight(strings.TrimSpace(prefix), ".")
	queryPrefix := ""
	if normalized != "" {
		queryPrefix = normalized + "."
	}

	envID, err := r.env.CurrentID(ctx)
	if err != nil {
		return nil, err
	}

	envEntries, err := r.store.FindActiveByPrefix(ctx, queryPrefix, &envID)
	if err != nil {
		return nil, err
	}
	globalEntries, err := r.store.FindActiveByPrefix(ctx, queryPrefix, nil)
	if err != nil {
		return nil, err
	}

	section := &Section{
		prefix: normalized,
		values: make(map[string]string, len(envEntries)+len(globalEntries)),
	}

	// Global tier first, then environment entries override shared suffixes
	for _, entry := range globalEntries {
		if suffix := strings.TrimPrefix(entry.Key, queryPrefix); suffix != "" {
			section.values[suffix] = entry.Value
		}
	}
	for _, entry := range envEntries {
		if suffix := strings.TrimPrefix(entry.Key, queryPrefix); suffix != "" {
			section.values[suffix] = entry.Value
		}
	}

	section.suffixes = make([]string, 0, len(section.values))
	for suffix := range section.values {
		section.suffixes = append(section.suffixes, suffix)
	}
	sort.Strings(section.suffixes)

	r.logger.Debug("section resolved",
		"prefix", normalized,
		"environment", r.env.CurrentCode(),
		"entries", section.Len(),
	)

	return section, nil
}
