package health

import (
	"context"
	"fmt"

	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/store"
)

// StoreCheck probes the backing configuration store.
func StoreCheck(st store.Store) CheckFunc {
	return func(ctx context.Context) error {
		if err := st.Ping(ctx); err != nil {
			return fmt.Errorf("store unreachable: %w", err)
		}
		return nil
	}
}

// EnvironmentCheck verifies the active environment code resolves to a
// known environment row. It fails on an unseeded store or a code that
// does not match any environment, both of which make every resolution
// fail fatally.
func EnvironmentCheck(env *environment.Resolver) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := env.CurrentID(ctx); err != nil {
			return fmt.Errorf("environment %q unresolvable: %w", env.CurrentCode(), err)
		}
		return nil
	}
}
