// Stratum is a centralized configuration management service with
// environment-aware resolution.
//
// It resolves configuration keys through a tiered fallback chain
// (environment-specific value, global value, process environment, caller
// default), providing:
//   - Environment detection with a fail-safe production default
//   - TTL-cached resolution with negative caching
//   - Sensitivity classification and masking of resolved values
//   - An audit trail of resolution activity
//   - An authenticated admin surface for cache and audit inspection
//
// Usage:
//
//	# Start the service with default configuration
//	stratum run
//
//	# Start with a custom configuration file
//	stratum run --config /etc/stratum/config.yaml
//
//	# Resolve a single key from the command line
//	stratum get database.pool_size --type int --default 10
//
//	# Show the detected environment
//	stratum env
//
//	# Validate a seed file
//	stratum seed lint seed.yaml
//
//	# Generate an admin API key
//	stratum keys generate --name ops --role admin
//
//	# Query the audit trail
//	stratum audit query --since 2026-08-01T00:00:00Z --key-prefix database.
//
// For complete documentation, see: https://github.com/meridian-hq/stratum
package main

func main() {
	Execute()
}
