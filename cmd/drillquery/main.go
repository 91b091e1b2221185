// Command drillquery serves drilling records to MCP clients with per-caller
// permission filtering.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "drillquery",
		Short: "Permission-aware drilling records over MCP",
		Long: `drillquery answers questions about wells, daily drilling reports, NPT and
mud properties for MCP clients. Every answer is filtered by the caller's role
and record ownership.

Configuration is read from the environment (DRILLQUERY_*, DATABASE_URL,
OTEL_*) and from a .env file in the working directory.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("log-level", "", "override DRILLQUERY_LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		newServeCommand(),
		newStdioCommand(),
		newMigrateCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)
	return root
}
