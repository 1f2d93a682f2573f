// =============================================================================
// Guide Reconciliation - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (recon)
//   ├── reconcileCmd (recon reconcile)
//   ├── serveCmd     (recon serve)
//   └── versionCmd   (recon version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads .env and .env.local into the environment
//   2. Loads the YAML configuration (--config); a missing file means defaults
//   3. Configures logging. Precedence: --verbose, then LOG_LEVEL /
//      LOG_FORMAT / LOG_OUTPUT, then the config file
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the configuration loaded before a subcommand runs.
var appConfig *config.MainConfig

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recon",
	Short: "Guide Reconciliation - Compare invoiced guides against the shipment manifest",
	Long: `recon compares the guide (tracking) numbers billed on an invoicing extract
against the guides on a shipment manifest. It reports which guides matched,
which manifest guides were never invoiced, and which invoiced guides are not on
the manifest, together with the invoiced, reconciled and pending amounts.

Inputs may be CSV (any common delimiter, UTF-8 or Latin-1), XLSX or legacy XLS.

Example Usage:
  recon reconcile --invoice facturas.xlsx --manifest manifiesto.csv
  recon reconcile --invoice f.csv --manifest m.csv --out report.pdf --json
  recon serve --port 8080`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initialize loads the environment, the configuration and the logger.
func initialize() error {
	loadEnvFiles()

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	appConfig = cfg

	logging.Configure(loggingConfig(cfg))
	logging.Default().Debug().Str("config", cfgFile).Msg("Configuration loaded")

	return nil
}

// loadEnvFiles loads .env files. .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Overload(envFile); err == nil && verbose {
			fmt.Fprintf(os.Stderr, "Loaded %s\n", envFile)
		}
	}
}

// loggingConfig merges the config file, the environment and --verbose.
func loggingConfig(cfg *config.MainConfig) *logging.Config {
	lc := &logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: "stderr",
	}
	if cfg.LogFile != "" {
		lc.Output = cfg.LogFile
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		lc.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		lc.Format = v
	}
	if v := os.Getenv("LOG_OUTPUT"); v != "" {
		lc.Output = v
	}

	if verbose {
		lc.Level = "debug"
	}
	return lc
}
