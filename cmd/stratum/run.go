package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"meridian-hq/stratum/pkg/admin"
	"meridian-hq/stratum/pkg/audit"
	auditstorage "meridian-hq/stratum/pkg/audit/storage"
	"meridian-hq/stratum/pkg/cli"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/maintenance"
	"meridian-hq/stratum/pkg/resolver"
	"meridian-hq/stratum/pkg/security/auth"
	"meridian-hq/stratum/pkg/server"
	"meridian-hq/stratum/pkg/store"
	"meridian-hq/stratum/pkg/store/seed"
	"meridian-hq/stratum/pkg/telemetry/health"
	"meridian-hq/stratum/pkg/telemetry/logging"
	"meridian-hq/stratum/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	envCode       string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Stratum configuration service",
	Long: `Start the Stratum configuration service with the specified configuration.

The service listens on the configured address and serves configuration
resolution, environment detection, health, metrics, and the authenticated
admin surface. Background maintenance jobs (cache sweep, audit retention)
run on their configured schedules.

Examples:
  # Start with default config
  stratum run

  # Start with custom config
  stratum run --config /etc/stratum/config.yaml

  # Override listen address
  stratum run --listen 0.0.0.0:8080

  # Pin the environment for this process
  stratum run --env QA

  # Validate config without starting the service
  stratum run --dry-run`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.envCode, "env", "", "override the active environment code")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the service")
}

func runService(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Service.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.envCode != "" {
		cfg.Environment.Override = runFlags.envCode
	}

	if _, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	ctx, stop := cli.SignalContext()
	defer stop()

	// Configuration store
	raw, err := openStore(cfg)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open store: %w", err))
	}
	defer raw.Close()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	st := metrics.InstrumentStore(raw, collector)
	fmt.Printf("✓ Store ready (%s)\n", cfg.Store.Backend)

	// Seeding works on the raw store; the instrumented wrapper only
	// carries the read surface.
	var seedTarget seed.Target
	if cfg.Store.Seed.Path != "" {
		target, ok := raw.(seed.Target)
		if !ok {
			return cli.NewConfigError("store.seed.path",
				fmt.Sprintf("store backend %q does not support seeding", cfg.Store.Backend))
		}
		seedTarget = target

		doc, err := seed.Apply(ctx, cfg.Store.Seed.Path, seedTarget)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to apply seed: %w", err))
		}
		fmt.Printf("✓ Seed applied (%d environments, %d entries)\n",
			len(doc.Environments), len(doc.Entries))
	}

	// Environment detection and identity resolution
	detector := environment.NewDetector(&environment.DetectorConfig{
		Variable: cfg.Environment.Variable,
		Fallback: cfg.Environment.Default,
	})
	env := environment.NewResolver(st, &environment.Config{
		TTL:      cfg.Resolution.CacheTTL,
		Detector: detector,
	})
	if cfg.Environment.Override != "" {
		env.SetOverride(cfg.Environment.Override)
	}
	fmt.Printf("✓ Environment: %s\n", env.CurrentCode())

	// Audit trail
	var auditStorage audit.Storage
	var auditRecorder *audit.Recorder
	if cfg.Audit.Enabled {
		if cfg.Audit.Sink == "sqlite" {
			sqliteCfg := auditstorage.DefaultSQLiteConfig()
			sqliteCfg.Path = cfg.Audit.SQLitePath
			s, err := auditstorage.NewSQLiteStorage(sqliteCfg)
			if err != nil {
				return cli.NewCommandError("run", fmt.Errorf("failed to open audit storage: %w", err))
			}
			auditStorage = s
			defer s.Close()
		}

		auditRecorder = audit.NewRecorder(auditStorage, &audit.Config{
			Enabled:      true,
			AsyncBuffer:  cfg.Audit.BufferSize,
			WriteTimeout: cfg.Audit.WriteTimeout,
		})
		defer auditRecorder.Close()
		fmt.Printf("✓ Audit trail enabled (sink: %s)\n", cfg.Audit.Sink)
	}

	// Resolver with its observers
	observers := []resolver.Observer{metrics.NewResolutionObserver(collector)}
	if auditRecorder != nil {
		observers = append(observers, audit.NewResolutionObserver(auditRecorder))
	}
	res := resolver.New(st, env, &resolver.Config{
		TTL:               cfg.Resolution.CacheTTL,
		EnvVarPrefix:      cfg.Resolution.EnvVarPrefix,
		LocalEnvironments: cfg.Environment.LocalCodes,
		Observers:         observers,
	})
	collector.RegisterCacheSize("config", res.CacheSize)
	collector.RegisterCacheSize("environment", env.CacheSize)

	manager := admin.NewManager(res, env)

	checker := health.New(0)
	checker.RegisterCheck("store", health.StoreCheck(st))
	checker.RegisterCheck("environment", health.EnvironmentCheck(env))

	authMw, err := adminAuth(cfg.Service.AdminKeys)
	if err != nil {
		return cli.NewConfigError("service.admin_keys", err.Error())
	}
	if authMw != nil {
		fmt.Printf("✓ Admin API keys loaded (%d keys)\n", len(cfg.Service.AdminKeys))
	} else {
		slog.Warn("no admin keys configured, admin endpoints disabled")
	}

	// Background maintenance: cache sweep and audit retention
	sched := maintenance.NewScheduler(maintenance.Config{
		SweepSchedule:     cfg.Maintenance.SweepSchedule,
		RetentionSchedule: cfg.Audit.Retention.Schedule,
		RetentionMaxAge:   cfg.Audit.Retention.MaxAge,
	}, manager, auditStorage, collector)
	if err := sched.Start(ctx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to start maintenance scheduler: %w", err))
	}
	defer sched.Stop()
	if next := sched.NextSweep(); next != nil {
		slog.Debug("cache sweep scheduled", "next", next)
	}
	fmt.Println("✓ Maintenance scheduler started")

	// Seed watcher reloads the store and drops the caches on change
	if seedTarget != nil && cfg.Store.Seed.Watch {
		watcher, err := seed.NewWatcher(&seed.WatcherConfig{Path: cfg.Store.Seed.Path})
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to watch seed file: %w", err))
		}
		defer watcher.Stop()

		go func() {
			err := watcher.Watch(ctx, func() error {
				if _, err := seed.Apply(ctx, cfg.Store.Seed.Path, seedTarget); err != nil {
					return err
				}
				manager.ClearCaches()
				return nil
			})
			if err != nil {
				slog.Error("seed watcher exited", "error", err)
			}
		}()
		fmt.Println("✓ Seed watcher started")
	}

	srv := server.NewServer(&cfg.Service, server.Deps{
		Resolver:    res,
		Environment: env,
		Admin:       manager,
		Audit:       auditStorage,
		Auth:        authMw,
		Health:      checker,
		Metrics:     collector,
		Version:     Version,
		Commit:      GitCommit,
		BuildTime:   BuildDate,
	})

	fmt.Println()
	fmt.Printf("✓ Serving on %s\n", cfg.Service.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Service.ListenAddress)
	if collector.Enabled() {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Service.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until the context is cancelled or a shutdown signal
	// arrives, then drains in-flight requests.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// openStore opens the configured store backend.
func openStore(cfg *config.Config) (store.Store, error) {
	return store.Open(&store.Config{
		Backend: cfg.Store.Backend,
		SQLite: store.SQLiteConfig{
			Path:        cfg.Store.SQLite.Path,
			BusyTimeout: cfg.Store.SQLite.BusyTimeout,
		},
		Postgres: store.PostgresConfig{
			DSN:             cfg.Store.Postgres.DSN,
			MaxOpenConns:    cfg.Store.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Store.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.Postgres.ConnMaxLifetime,
		},
	})
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Stratum v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("environment detection",
		"variable", cfg.Environment.Variable,
		"default", cfg.Environment.Default,
		"override", cfg.Environment.Override != "",
	)
	if cfg.Audit.Enabled {
		slog.Debug("audit enabled", "sink", cfg.Audit.Sink)
	}
}

// adminAuth builds the admin authentication middleware from configured
// keys. Returns nil when no keys are configured; the server then leaves
// the admin routes unmounted.
func adminAuth(keys []config.AdminKeyConfig) (*auth.Middleware, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	apiKeys := make([]*auth.APIKey, 0, len(keys))
	for _, k := range keys {
		role, err := parseRole(k.Role)
		if err != nil {
			return nil, fmt.Errorf("admin key %q: %v", k.Name, err)
		}
		apiKeys = append(apiKeys, &auth.APIKey{
			Key:     k.Key,
			Name:    k.Name,
			Role:    role,
			Enabled: k.IsEnabled(),
		})
	}

	return auth.NewMiddleware(auth.NewValidator(apiKeys), nil), nil
}

// parseRole maps a configured role string to a Role. An empty role is
// read-only; access never widens by omission.
func parseRole(s string) (auth.Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(auth.RoleReadOnly):
		return auth.RoleReadOnly, nil
	case string(auth.RoleAdmin):
		return auth.RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q (want admin or readonly)", s)
	}
}
