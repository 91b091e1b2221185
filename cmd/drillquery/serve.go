package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oilfield-ai/drillquery/internal/auth"
	"github.com/oilfield-ai/drillquery/internal/config"
	"github.com/oilfield-ai/drillquery/internal/ratelimit"
	"github.com/oilfield-ai/drillquery/internal/server"
	"github.com/oilfield-ai/drillquery/internal/telemetry"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over streamable HTTP (/mcp) and SSE (/sse, /message)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel, os.Stdout)
			slog.SetDefault(logger)
			if err := runServe(cmd.Context(), cfg, logger); err != nil {
				logger.Error("fatal error", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().Int("port", 0, "override DRILLQUERY_PORT")
	cmd.Flags().String("store", "", "override DRILLQUERY_STORE (sqlite or postgres)")
	cmd.Flags().String("role-table", "", "override DRILLQUERY_ROLE_TABLE")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("drillquery starting", "version", version, "port", cfg.Port, "store", cfg.Driver)

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.OTELEndpoint,
		Insecure:    cfg.OTELInsecure,
		ServiceName: cfg.ServiceName,
		Version:     version,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	policy, err := loadPolicy(cfg, logger)
	if err != nil {
		return err
	}

	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	var limiter ratelimit.Limiter = ratelimit.NoopLimiter{}
	if cfg.RateLimitRPS > 0 {
		mem := ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer func() { _ = mem.Close() }()
		limiter = mem
		logger.Info("rate limiting: memory (per caller token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		logger.Info("rate limiting: disabled")
	}
	if cfg.TrustIdentityHeaders {
		logger.Warn("identity: trusting X-User-* headers; any client that reaches this port can claim any role",
			"env", "DRILLQUERY_TRUST_IDENTITY_HEADERS")
	}

	srv := server.New(server.ServerConfig{
		MCPServer:            newMCPServer(cfg, store, policy, logger).MCPServer(),
		Store:                store,
		Logger:               logger,
		JWTMgr:               jwtMgr,
		TrustIdentityHeaders: cfg.TrustIdentityHeaders,
		Limiter:              limiter,
		Port:                 cfg.Port,
		ReadTimeout:          cfg.ReadTimeout,
		WriteTimeout:         cfg.WriteTimeout,
		Version:              version,
		MaxRequestBodyBytes:  cfg.MaxRequestBodyBytes,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("drillquery shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	logger.Info("drillquery stopped")
	return nil
}
