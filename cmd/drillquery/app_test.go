package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oilfield-ai/drillquery/internal/config"
	"github.com/oilfield-ai/drillquery/internal/storage"
)

var quietLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger("bogus", &buf).Info("info is the default")
	assert.Contains(t, buf.String(), "info is the default")
}

func TestOpenStoreSQLiteDemo(t *testing.T) {
	cfg := config.Config{Driver: config.DriverSQLite, SQLitePath: ":memory:", SeedDemoData: true}
	store, closeStore, err := openStore(context.Background(), cfg, quietLogger)
	require.NoError(t, err)
	defer closeStore()

	wells, err := store.ListWells(context.Background(), storage.WellFilter{})
	require.NoError(t, err)
	assert.Len(t, wells, 4)
}

func TestOpenStoreSQLiteEmpty(t *testing.T) {
	cfg := config.Config{Driver: config.DriverSQLite, SQLitePath: ":memory:"}
	store, closeStore, err := openStore(context.Background(), cfg, quietLogger)
	require.NoError(t, err)
	defer closeStore()

	wells, err := store.ListWells(context.Background(), storage.WellFilter{})
	require.NoError(t, err)
	assert.Empty(t, wells)
}

func TestLoadPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`roles:
  surveyor:
    tier: standard
    wells: ["XY-009"]
    blocks: ["Block-B"]
    capabilities: [read]
  guest:
    capabilities: [read]
`), 0o600))

	policy, err := loadPolicy(config.Config{RoleTablePath: path}, quietLogger)
	require.NoError(t, err)
	assert.True(t, policy.CheckWellAccess("surveyor", "XY-009"))
	assert.False(t, policy.CheckWellAccess("surveyor", "ZT-102"))

	_, err = loadPolicy(config.Config{RoleTablePath: filepath.Join(t.TempDir(), "missing.yaml")}, quietLogger)
	assert.Error(t, err)
}

func TestLoadPolicyDefault(t *testing.T) {
	policy, err := loadPolicy(config.Config{}, quietLogger)
	require.NoError(t, err)
	assert.True(t, policy.CheckWellAccess("engineer", "ZT-105"))
	assert.False(t, policy.DevMode())
}

func TestApplyOverrides(t *testing.T) {
	cmd := newServeCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9191", "--store", "POSTGRES"}))

	cfg := config.Config{Port: 8080, Driver: config.DriverSQLite, RoleTablePath: "env.yaml"}
	applyOverrides(cmd.Flags(), &cfg)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, config.DriverPostgres, cfg.Driver)
	assert.Equal(t, "env.yaml", cfg.RoleTablePath, "unset flags keep the environment value")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "drillquery dev\n", out.String())
}

func TestTokenCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--role", "engineer", "--user-id", "u1001"})
	require.NoError(t, cmd.Execute())
	assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "."), 3, "a compact JWS has three parts")
}

func TestTokenCommandRequiresUser(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--role", "engineer"})
	assert.Error(t, cmd.Execute())
}

func TestNewMCPServerWiring(t *testing.T) {
	cfg := config.Config{Driver: config.DriverSQLite, SQLitePath: ":memory:", SeedDemoData: true, MaxCompareWells: 3, ReportCandidates: 2}
	store, closeStore, err := openStore(context.Background(), cfg, quietLogger)
	require.NoError(t, err)
	defer closeStore()
	policy, err := loadPolicy(cfg, quietLogger)
	require.NoError(t, err)

	srv := newMCPServer(cfg, store, policy, quietLogger)
	require.NotNil(t, srv.MCPServer())
}
