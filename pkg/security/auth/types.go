package auth

import "time"

// Role gates what an API key may call.
type Role string

const (
	// RoleAdmin permits every admin endpoint, including cache mutation
	// and audit queries.
	RoleAdmin Role = "admin"

	// RoleReadOnly permits read endpoints only.
	RoleReadOnly Role = "readonly"
)

// Allows reports whether a key with this role may perform an operation
// requiring the given role. Admin keys satisfy every requirement.
func (r Role) Allows(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReadOnly
}

// APIKey represents a configured API key with metadata.
type APIKey struct {
	Key       string
	Name      string
	Role      Role
	Enabled   bool
	CreatedAt time.Time
}

// KeyStore stores and validates API keys.
type KeyStore interface {
	Validate(key string) (*APIKey, error)
	List() []*APIKey
}
