package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// KeyPrefix marks generated keys so they are recognizable in configs
// and can be grepped without exposing the secret part.
const KeyPrefix = "stk_"

// Validator validates API keys against a configured set of keys.
type Validator struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

// NewValidator creates a validator with the given keys.
func NewValidator(keys []*APIKey) *Validator {
	keyMap := make(map[string]*APIKey)
	for _, key := range keys {
		keyMap[key.Key] = key
	}

	return &Validator{
		keys: keyMap,
	}
}

// Validate checks if the given API key is valid and returns its info.
func (v *Validator) Validate(key string) (*APIKey, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	info, ok := v.keys[key]
	if !ok {
		return nil, fmt.Errorf("invalid API key")
	}

	if !info.Enabled {
		return nil, fmt.Errorf("API key disabled")
	}

	return info, nil
}

// List returns all configured API keys.
func (v *Validator) List() []*APIKey {
	v.mu.RLock()
	defer v.mu.RUnlock()

	keys := make([]*APIKey, 0, len(v.keys))
	for _, key := range v.keys {
		keys = append(keys, key)
	}
	return keys
}

// Add adds a new API key to the validator.
func (v *Validator) Add(info *APIKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[info.Key] = info
}

// Remove removes an API key from the validator.
func (v *Validator) Remove(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, key)
}

// GenerateKey produces a new random API key: KeyPrefix followed by 32 hex
// characters from crypto/rand.
func GenerateKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}
