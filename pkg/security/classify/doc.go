// Package classify assigns sensitivity categories to configuration keys
// and masks values accordingly before they reach logs or audit trails.
//
// # Overview
//
// Classification is a pure function of the key string. Keys are split into
// segments on '.', '_', and '-', lower-cased, and matched against a fixed
// rule set. The first matching category wins:
//
//   - CREDENTIAL: password/secret/token/key-bearing names, value fully masked
//   - INTERNAL: infrastructure-facing names (hosts, URLs, DSNs), value
//     partially masked with a short visible prefix
//   - GENERAL: everything else, value logged in full
//
// # Usage
//
//	category := classify.Classify("db.password")
//	safe := classify.Mask(category, rawValue)
//
// Classification never performs I/O, never fails, and returns the same
// category for the same key on every call. It controls log formatting only;
// resolution behavior is identical for every category.
package classify
