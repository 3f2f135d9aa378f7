package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"meridian-hq/stratum/pkg/security/classify"
	"meridian-hq/stratum/pkg/store"
)

// Document is the parsed seed file.
type Document struct {
	// Environments lists deployment environments in seed order. Durable ids
	// are assigned from position (first environment gets id 1).
	Environments []EnvironmentSpec `yaml:"environments"`

	// Entries lists configuration rows.
	Entries []EntrySpec `yaml:"entries"`
}

// EnvironmentSpec declares one environment row.
type EnvironmentSpec struct {
	// Code is the short unique name, e.g. "DEV".
	Code string `yaml:"code"`

	// DisplayName is the human-readable name. Default: the code.
	DisplayName string `yaml:"display_name"`
}

// EntrySpec declares one configuration row.
type EntrySpec struct {
	// Key is the dot-namespaced configuration key.
	Key string `yaml:"key"`

	// Value is the raw string value.
	Value string `yaml:"value"`

	// Environment is the owning environment code. Empty means a global
	// entry available to all environments.
	Environment string `yaml:"environment"`

	// DataType is STRING, INTEGER, or BOOLEAN. Default: STRING.
	DataType string `yaml:"data_type"`

	// Category is the stored sensitivity label. Default: GENERAL.
	Category string `yaml:"category"`

	// Active marks the row as live. Default: true.
	Active *bool `yaml:"active"`
}

// Target is a store backend that accepts wholesale seed replacement.
// Implemented by store.MemoryStore and store.SQLiteStore.
type Target interface {
	ReplaceSeed(ctx context.Context, envs []store.Environment, entries []store.Entry) error
}

// Load reads and parses a seed document. The document is validated; a
// document with problems is rejected.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if problems := doc.Validate(); len(problems) > 0 {
		return nil, fmt.Errorf("invalid seed file %s: %s", path, strings.Join(problems, "; "))
	}

	return doc, nil
}

// Validate checks the document and returns a list of problems, one message
// per problem. An empty list means the document is valid.
func (d *Document) Validate() []string {
	var problems []string

	codes := make(map[string]int)
	for i, env := range d.Environments {
		code := strings.ToUpper(strings.TrimSpace(env.Code))
		if code == "" {
			problems = append(problems, fmt.Sprintf("environments[%d]: code cannot be empty", i))
			continue
		}
		if prev, dup := codes[code]; dup {
			problems = append(problems, fmt.Sprintf("environments[%d]: duplicate code %q (first at environments[%d])", i, env.Code, prev))
			continue
		}
		codes[code] = i
	}

	seen := make(map[string]int)
	for i, entry := range d.Entries {
		if strings.TrimSpace(entry.Key) == "" {
			problems = append(problems, fmt.Sprintf("entries[%d]: key cannot be empty", i))
			continue
		}

		envCode := strings.ToUpper(strings.TrimSpace(entry.Environment))
		if envCode != "" {
			if _, ok := codes[envCode]; !ok {
				problems = append(problems, fmt.Sprintf("entries[%d]: unknown environment %q", i, entry.Environment))
			}
		}

		if entry.DataType != "" {
			if !store.DataType(strings.ToUpper(entry.DataType)).Valid() {
				problems = append(problems, fmt.Sprintf("entries[%d]: unknown data type %q", i, entry.DataType))
			}
		}

		if _, err := classify.ParseCategory(entry.Category); err != nil {
			problems = append(problems, fmt.Sprintf("entries[%d]: %v", i, err))
		}

		// Uniqueness of (key, environment) holds among active entries only
		if entry.Active == nil || *entry.Active {
			pair := entry.Key + "\x00" + envCode
			if prev, dup := seen[pair]; dup {
				problems = append(problems, fmt.Sprintf("entries[%d]: duplicate active entry for key %q in environment %q (first at entries[%d])", i, entry.Key, entry.Environment, prev))
				continue
			}
			seen[pair] = i
		}
	}

	return problems
}

// Materialize converts the document into store rows. Environment ids are
// assigned from seed order starting at 1; entries resolve their environment
// code to the assigned id.
func (d *Document) Materialize() ([]store.Environment, []store.Entry, error) {
	now := time.Now()

	idByCode := make(map[string]int64, len(d.Environments))
	envs := make([]store.Environment, 0, len(d.Environments))
	for i, spec := range d.Environments {
		code := strings.ToUpper(strings.TrimSpace(spec.Code))
		display := spec.DisplayName
		if display == "" {
			display = code
		}

		id := int64(i + 1)
		idByCode[code] = id
		envs = append(envs, store.Environment{ID: id, Code: code, DisplayName: display})
	}

	entries := make([]store.Entry, 0, len(d.Entries))
	for _, spec := range d.Entries {
		entry := store.Entry{
			Key:       spec.Key,
			Value:     spec.Value,
			DataType:  store.DataTypeString,
			Category:  classify.CategoryGeneral.String(),
			IsActive:  true,
			UpdatedAt: now,
		}

		if spec.Environment != "" {
			id, ok := idByCode[strings.ToUpper(strings.TrimSpace(spec.Environment))]
			if !ok {
				return nil, nil, fmt.Errorf("entry %q references unknown environment %q", spec.Key, spec.Environment)
			}
			entry.EnvironmentID = &id
		}
		if spec.DataType != "" {
			entry.DataType = store.DataType(strings.ToUpper(spec.DataType))
		}
		if spec.Category != "" {
			category, err := classify.ParseCategory(spec.Category)
			if err != nil {
				return nil, nil, fmt.Errorf("entry %q: %w", spec.Key, err)
			}
			entry.Category = category.String()
		}
		if spec.Active != nil {
			entry.IsActive = *spec.Active
		}

		entries = append(entries, entry)
	}

	return envs, entries, nil
}

// Apply loads a seed document and replaces the target's rows with it.
// Returns the applied document.
func Apply(ctx context.Context, path string, target Target) (*Document, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	envs, entries, err := doc.Materialize()
	if err != nil {
		return nil, err
	}

	if err := target.ReplaceSeed(ctx, envs, entries); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}

	return doc, nil
}
