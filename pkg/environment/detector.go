package environment

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DefaultVariable is the operating-system environment variable consulted
// when no process-level override is set.
const DefaultVariable = "STRATUM_ENV"

// DefaultFallback is the fail-safe environment code used when no source
// yields a value. PROD is the deliberate choice: the most restrictive
// environment, so a missing setting never accidentally loosens behavior.
const DefaultFallback = "PROD"

// DetectorConfig contains configuration for environment detection.
type DetectorConfig struct {
	// Variable is the OS environment variable holding the environment code.
	// Default: "STRATUM_ENV"
	Variable string

	// Fallback is the code returned when neither the override nor the
	// variable is set. Default: "PROD"
	Fallback string

	// Lookup resolves an OS environment variable. Tests substitute a fixed
	// map here instead of mutating the real process environment.
	// Default: os.LookupEnv
	Lookup func(name string) (string, bool)
}

// Detector produces the active environment code from ordered sources:
// process-level override, then OS environment variable, then the fail-safe
// fallback. It never fails and never touches the backing store.
type Detector struct {
	variable string
	fallback string
	lookup   func(name string) (string, bool)
	logger   *slog.Logger

	mu       sync.RWMutex
	override string
}

// NewDetector creates a detector. Pass nil to use defaults.
func NewDetector(cfg *DetectorConfig) *Detector {
	if cfg == nil {
		cfg = &DetectorConfig{}
	}

	variable := cfg.Variable
	if variable == "" {
		variable = DefaultVariable
	}
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = DefaultFallback
	}
	lookup := cfg.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	return &Detector{
		variable: variable,
		fallback: Normalize(fallback),
		lookup:   lookup,
		logger:   slog.Default().With("component", "environment.detector"),
	}
}

// Code returns the active environment code, normalized to upper case.
// Sources are consulted in order: override, OS variable, fallback. The
// first non-empty source wins.
func (d *Detector) Code() string {
	d.mu.RLock()
	override := d.override
	d.mu.RUnlock()

	if override != "" {
		return override
	}

	if value, ok := d.lookup(d.variable); ok {
		if code := Normalize(value); code != "" {
			return code
		}
	}

	return d.fallback
}

// SetOverride pins the environment code, taking precedence over the OS
// variable. An empty or blank code clears the override.
func (d *Detector) SetOverride(code string) {
	normalized := Normalize(code)

	d.mu.Lock()
	d.override = normalized
	d.mu.Unlock()

	if normalized == "" {
		d.logger.Info("environment override cleared")
		return
	}
	d.logger.Info("environment override set", "code", normalized)
}

// ClearOverride removes the process-level override.
func (d *Detector) ClearOverride() {
	d.SetOverride("")
}

// Override returns the current override code, or "" if none is set.
func (d *Detector) Override() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.override
}

// Variable returns the name of the OS environment variable the detector
// consults.
func (d *Detector) Variable() string {
	return d.variable
}

// Normalize canonicalizes an environment code for comparison and cache
// keying: surrounding whitespace is trimmed and the result upper-cased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
