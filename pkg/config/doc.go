// Package config provides bootstrap configuration for the stratum service.
//
// Bootstrap configuration is everything the service needs before it can
// reach the configuration store: listen address, store backend and
// credentials, environment detection settings, cache TTL, audit sink, and
// telemetry settings. It is loaded once at startup from a YAML file, with
// optional environment variable overrides named STRATUM_<SECTION>_<FIELD>
// (for example STRATUM_SERVICE_LISTEN_ADDRESS). Application-level
// configuration lives in the store and is served by pkg/resolver; the two
// layers never mix.
//
// Loading sequence:
//
//  1. Start from DefaultConfig.
//  2. Unmarshal the YAML file over it, so explicit false and empty values
//     survive.
//  3. Apply environment variable overrides (LoadConfigWithEnvOverrides).
//  4. Validate; all field errors are collected into one ValidationError.
//
// A process-wide singleton is available through Initialize/GetConfig for
// the service binary. Library consumers should pass Config values
// explicitly instead.
package config
