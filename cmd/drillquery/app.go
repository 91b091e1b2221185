package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oilfield-ai/drillquery/internal/authz"
	"github.com/oilfield-ai/drillquery/internal/config"
	"github.com/oilfield-ai/drillquery/internal/mcp"
	"github.com/oilfield-ai/drillquery/internal/service/dailyreport"
	"github.com/oilfield-ai/drillquery/internal/service/drilling"
	"github.com/oilfield-ai/drillquery/internal/storage"
	"github.com/oilfield-ai/drillquery/internal/storage/sqlite"
	"github.com/oilfield-ai/drillquery/migrations"
)

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	applyOverrides(cmd.Flags(), &cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyOverrides copies explicitly set flags onto cfg. Unset flags leave
// the environment value in place.
func applyOverrides(flags *pflag.FlagSet, cfg *config.Config) {
	if f := flags.Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := flags.Lookup("port"); f != nil && f.Changed {
		if v, err := flags.GetInt("port"); err == nil {
			cfg.Port = v
		}
	}
	if f := flags.Lookup("store"); f != nil && f.Changed {
		cfg.Driver = strings.ToLower(f.Value.String())
	}
	if f := flags.Lookup("role-table"); f != nil && f.Changed {
		cfg.RoleTablePath = f.Value.String()
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

// openStore opens the configured store. The returned close function is
// never nil.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := storage.New(ctx, cfg.DatabaseURL, int32(cfg.MaxConns), logger) //nolint:gosec // validated positive in config.Validate
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %w", err)
		}
		if err := db.RunMigrations(ctx, migrations.FS); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("storage: migrate: %w", err)
		}
		db.RegisterPoolMetrics()
		if cfg.SeedDemoData {
			if err := db.Seed(ctx, storage.DemoFixtures()); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("storage: seed: %w", err)
			}
		}
		logger.Info("store: postgres", "max_conns", cfg.MaxConns, "seeded", cfg.SeedDemoData)
		return db, db.Close, nil

	default:
		open := sqlite.Open
		if cfg.SeedDemoData {
			open = sqlite.OpenDemo
		}
		s, err := open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("store: sqlite", "path", cfg.SQLitePath, "seeded", cfg.SeedDemoData)
		return s, func() { _ = s.Close() }, nil
	}
}

// loadPolicy builds the access policy from the configured role table.
func loadPolicy(cfg config.Config, logger *slog.Logger) (*authz.Policy, error) {
	table := authz.DefaultTable()
	if cfg.RoleTablePath != "" {
		t, err := authz.LoadTable(cfg.RoleTablePath)
		if err != nil {
			return nil, err
		}
		table = t
		logger.Info("authz: role table loaded", "path", cfg.RoleTablePath, "roles", len(table))
	}
	if cfg.DevMode {
		logger.Warn("authz: DEV MODE enabled, every permission check is bypassed")
	}
	return authz.NewPolicy(table, cfg.DevMode, logger), nil
}

// newMCPServer wires the query services over store.
func newMCPServer(cfg config.Config, store storage.Store, policy *authz.Policy, logger *slog.Logger) *mcp.Server {
	svc := drilling.New(store, policy, logger, drilling.Options{MaxCompareWells: cfg.MaxCompareWells})
	gate := dailyreport.New(store, policy, logger, dailyreport.Options{
		CacheTTL:   cfg.ReportCacheTTL,
		Candidates: cfg.ReportCandidates,
	})
	return mcp.New(svc, gate, logger, version)
}
