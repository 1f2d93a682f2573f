// =============================================================================
// Guide Reconciliation - Main Entry Point
// =============================================================================
//
// This is the main entry point for the recon CLI. It initializes the Cobra
// CLI framework and delegates command execution to the cmd package.
//
// USAGE:
//   recon reconcile   - Reconcile an invoice file against a shipment manifest
//   recon serve       - Run the reconciliation HTTP server
//   recon version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (datasets, reconciliation, reports, server)
//   - pkg/           : Shared utilities (output files, run summaries)
//   - configs/       : Example YAML configuration
//
// =============================================================================

package main

import (
	"github.com/wilo3161/aropostale-logistics-v2/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
