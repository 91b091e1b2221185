package main

import (
	"fmt"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/oilfield-ai/drillquery/internal/auth"
	"github.com/oilfield-ai/drillquery/internal/ctxutil"
)

func newStdioCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Serve MCP over stdin/stdout for a launching client",
		Long: `Serve MCP over stdin/stdout. The caller is taken from the process
environment: LIBRECHAT_USER_ROLE, LIBRECHAT_USER_ID and LIBRECHAT_USER_EMAIL.
Missing variables make the caller a guest. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol.
			logger := newLogger(cfg.LogLevel, os.Stderr)

			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			policy, err := loadPolicy(cfg, logger)
			if err != nil {
				return err
			}

			caller := auth.CallerFromEnv(os.Getenv)
			resolved, _ := policy.Entry(caller.Role)
			logger.Info("drillquery stdio starting", "version", version,
				"user_id", caller.UserID, "role", caller.Role, "resolved_role", resolved)

			stdio := mcpserver.NewStdioServer(newMCPServer(cfg, store, policy, logger).MCPServer())
			if err := stdio.Listen(ctxutil.WithCaller(ctx, caller), os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
				return fmt.Errorf("stdio: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("store", "", "override DRILLQUERY_STORE (sqlite or postgres)")
	cmd.Flags().String("role-table", "", "override DRILLQUERY_ROLE_TABLE")
	return cmd
}
