// Package auth provides API key authentication for the admin HTTP surface.
//
// # API Keys
//
// Keys are static, loaded from the bootstrap configuration, and carry a
// role that gates what they may call:
//
//   - admin: full access, including cache mutation and audit queries
//   - readonly: stats and resolution endpoints only
//
// # Key Sources
//
// The middleware extracts keys from configurable sources, by default the
// X-API-Key header and the Authorization header with a Bearer scheme:
//
//	X-API-Key: stk_4f1c...
//	Authorization: Bearer stk_4f1c...
//
// # Usage
//
//	validator := auth.NewValidator(keys)
//	middleware := auth.NewMiddleware(validator, nil)
//
//	mux.Handle("/admin/cache/clear", middleware.Require(auth.RoleAdmin)(clearHandler))
//	mux.Handle("/admin/cache/stats", middleware.Require(auth.RoleReadOnly)(statsHandler))
//
// # Thread Safety
//
// The validator is safe for concurrent use. Keys can be added and removed
// at runtime.
package auth
