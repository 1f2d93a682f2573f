// =============================================================================
// Guide Reconciliation - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP host for the
// reconciliation engine.
//
// COMMAND USAGE:
//   recon serve [--port 8080]
//
// PORT PRECEDENCE:
//   --port, then RECON_PORT, then server.port in the configuration file.
//
// The server stops gracefully on SIGINT or SIGTERM.
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
	"github.com/wilo3161/aropostale-logistics-v2/internal/server"
)

// port overrides server.port from the configuration file.
var port string

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation HTTP server",
	Long: `Run the HTTP server. Clients POST a multipart form with an "invoice" and
a "manifest" file to:

  /api/v1/reconcile           JSON result
  /api/v1/reconcile/report    PDF report
  /api/v1/reconcile/workbook  XLSX workbook`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// --port flag: TCP port to listen on.
	serveCmd.Flags().StringVar(
		&port,
		"port",
		"",
		"TCP port to listen on (default: server.port)",
	)
}

// runServe applies the port overrides and serves until ctx is cancelled.
func runServe(ctx context.Context) error {
	cfg := *appConfig
	if v := os.Getenv("RECON_PORT"); v != "" {
		cfg.Server.Port = v
	}
	if port != "" {
		cfg.Server.Port = port
	}

	return server.New(&cfg, logging.Default()).Run(ctx)
}
