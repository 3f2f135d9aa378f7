package classify

import (
	"fmt"
	"strings"
)

// Category is the sensitivity classification of a configuration key.
// The zero value is CategoryGeneral, the default for unmatched keys.
type Category int

const (
	// CategoryGeneral marks keys safe to log in full (feature flags,
	// thresholds, display settings).
	CategoryGeneral Category = iota

	// CategoryInternal marks infrastructure-facing keys (hostnames, URLs,
	// connection strings). Values are partially masked in logs.
	CategoryInternal

	// CategoryCredential marks secret-bearing keys (passwords, tokens,
	// API keys). Values are fully masked in logs.
	CategoryCredential
)

// String returns the canonical upper-case name of the category.
func (c Category) String() string {
	switch c {
	case CategoryCredential:
		return "CREDENTIAL"
	case CategoryInternal:
		return "INTERNAL"
	default:
		return "GENERAL"
	}
}

// ParseCategory converts a stored category name to a Category.
// Matching is case-insensitive. Unknown names are an error.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDENTIAL":
		return CategoryCredential, nil
	case "INTERNAL":
		return CategoryInternal, nil
	case "GENERAL", "PUBLIC", "":
		return CategoryGeneral, nil
	default:
		return CategoryGeneral, fmt.Errorf("unknown category %q", s)
	}
}

// credentialSegments are key segments that mark a key as secret-bearing.
var credentialSegments = map[string]struct{}{
	"password":    {},
	"passwd":      {},
	"pwd":         {},
	"secret":      {},
	"secrets":     {},
	"token":       {},
	"tokens":      {},
	"key":         {},
	"keys":        {},
	"apikey":      {},
	"credential":  {},
	"credentials": {},
	"private":     {},
}

// internalSegments are key segments that mark a key as infrastructure-facing.
var internalSegments = map[string]struct{}{
	"host":      {},
	"hostname":  {},
	"url":       {},
	"uri":       {},
	"endpoint":  {},
	"endpoints": {},
	"server":    {},
	"servers":   {},
	"address":   {},
	"addr":      {},
	"dsn":       {},
	"ip":        {},
	"port":      {},
	"proxy":     {},
	"gateway":   {},
}

// Classify returns the sensitivity category for a configuration key.
//
// The key is lower-cased and split into segments on '.', '_', and '-'.
// If any segment matches the credential rule set the key is CREDENTIAL;
// otherwise if any segment matches the internal rule set it is INTERNAL;
// otherwise it is GENERAL. Credential matching takes precedence so that a
// key like "db.host.password" masks fully, not partially.
func Classify(key string) Category {
	segments := splitKey(key)

	for _, seg := range segments {
		if _, ok := credentialSegments[seg]; ok {
			return CategoryCredential
		}
	}

	for _, seg := range segments {
		if _, ok := internalSegments[seg]; ok {
			return CategoryInternal
		}
	}

	return CategoryGeneral
}

// Mask returns the log-safe form of a value for the given category.
//
// CREDENTIAL values become a fixed "******" so neither content nor length
// leaks. INTERNAL values keep a four-character prefix followed by "****";
// values of four characters or fewer become "****". GENERAL values pass
// through unchanged. An empty value is returned empty for every category.
func Mask(category Category, value string) string {
	if value == "" {
		return ""
	}

	switch category {
	case CategoryCredential:
		return "******"
	case CategoryInternal:
		if len(value) <= 4 {
			return "****"
		}
		return value[:4] + "****"
	default:
		return value
	}
}

// MaskFor classifies key and masks value in one step. Convenience for
// audit call sites that need both the category and the safe value.
func MaskFor(key, value string) (Category, string) {
	category := Classify(key)
	return category, Mask(category, value)
}

// splitKey lower-cases a key and splits it into matchable segments.
func splitKey(key string) []string {
	k := strings.ToLower(strings.TrimSpace(key))
	return strings.FieldsFunc(k, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
}
