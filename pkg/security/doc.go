/*
Package security groups the classification and authentication packages of
stratum.

# Key Classification

Classify configuration keys and mask values before they reach logs or
API responses:

	category, masked := classify.MaskFor("database.password", raw)
	slog.Info("resolved", "key", key, "category", category.String(), "value", masked)

Classification is pure and total: every key maps to exactly one of
CREDENTIAL, INTERNAL or GENERAL based on its segments, and the same key
always maps to the same category.

# API Key Authentication

Protect admin routes with static API keys from the bootstrap config:

	validator := auth.NewValidator(keys)
	middleware := auth.NewMiddleware(validator, auth.DefaultKeySources())

	mux.Handle("/admin/cache/clear", middleware.Require(auth.RoleAdmin)(handler))

Keys are presented via the X-API-Key header or an Authorization bearer
token. Roles are admin and readonly; admin satisfies every requirement.
*/
package security
