package config

import (
	"fmt"
	"sync"
)

// The process-wide configuration. One Initialize call at startup wins;
// everything after reads a stable snapshot pointer.
var global struct {
	mu  sync.RWMutex
	cfg *Config
}

var initOnce sync.Once

// Initialize loads the configuration from path, applies environment
// overrides, and installs it as the process-wide instance. Only the
// first call loads; later calls return nil without touching the
// installed configuration.
func Initialize(path string) error {
	var err error
	initOnce.Do(func() {
		var cfg *Config
		if cfg, err = LoadConfigWithEnvOverrides(path); err != nil {
			return
		}
		install(cfg)
	})
	return err
}

// GetConfig returns the installed configuration, or nil before a
// successful Initialize.
func GetConfig() *Config {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.cfg
}

// MustGetConfig returns the installed configuration and panics when
// none is installed yet. For use after startup has already proven the
// configuration loads.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// SetConfig installs cfg directly, bypassing loading. Intended for
// tests wiring a fixture configuration.
func SetConfig(cfg *Config) {
	install(cfg)
}

// ReloadConfig loads path again and swaps the installed configuration.
// On failure the previous configuration stays installed.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	install(cfg)
	return nil
}

func install(cfg *Config) {
	global.mu.Lock()
	global.cfg = cfg
	global.mu.Unlock()
}
