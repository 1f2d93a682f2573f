// =============================================================================
// Guide Reconciliation - Reconcile Command
// =============================================================================
//
// This file defines the 'reconcile' command, the main command of the CLI. It
// reconciles one invoice file against one manifest file and writes the
// report.
//
// COMMAND USAGE:
//   recon reconcile --invoice <file> --manifest <file> [flags]
//
// FLAGS:
//   --invoice    : Invoicing extract (CSV, XLSX or XLS)
//   --manifest   : Shipment manifest (CSV, XLSX or XLS)
//   --out        : PDF report path (default: generated in output_dir)
//   --workbook   : Also write an XLSX workbook to this path
//   --summary    : Also write a plain-text run summary to output_dir
//   --json       : Print the result as JSON instead of the text summary
//
// PIPELINE:
//   1. Create output_dir if a generated name needs it, open both files
//   2. Decode and reconcile them
//   3. Render the PDF report (and the workbook, if requested)
//   4. Write the outputs atomically
//   5. Print the summary
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/wilo3161/aropostale-logistics-v2/internal/dataset"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
	"github.com/wilo3161/aropostale-logistics-v2/internal/reconcile"
	"github.com/wilo3161/aropostale-logistics-v2/internal/report"
	"github.com/wilo3161/aropostale-logistics-v2/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// invoicePath is the invoicing extract to reconcile.
var invoicePath string

// manifestPath is the shipment manifest to reconcile against.
var manifestPath string

// reportPath is where the PDF report is written.
var reportPath string

// workbookPath is where the optional XLSX workbook is written.
var workbookPath string

// writeSummary enables the plain-text run summary.
var writeSummary bool

// jsonOutput prints the result as JSON.
var jsonOutput bool

// =============================================================================
// RECONCILE COMMAND DEFINITION
// =============================================================================

// reconcileCmd represents the 'reconcile' command.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile an invoice file against a shipment manifest",
	Long: `The reconcile command loads an invoicing extract and a shipment manifest,
finds the guide column on each, and compares the two sets of guide numbers.

It writes a PDF report with the summary table, the KPIs, the charts and the
full list of missing and extra guides. The guide and amount columns are found
by keyword (see reconciliation.guide_keywords and amount_keywords in the
configuration file).

On error nothing is written and the command exits with a non-zero status.`,

	// RunE is like Run but returns an error. This is preferred for commands
	// that can fail, as it allows Cobra to handle the error gracefully.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd.OutOrStdout())
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the reconcile command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(reconcileCmd)

	// ==========================================================================
	// LOCAL FLAGS
	// ==========================================================================
	// Local flags are only available to this command.

	// --invoice flag: The invoicing extract.
	reconcileCmd.Flags().StringVar(
		&invoicePath,
		"invoice",
		"",
		"Invoicing extract (CSV, XLSX or XLS)",
	)

	// --manifest flag: The shipment manifest.
	reconcileCmd.Flags().StringVar(
		&manifestPath,
		"manifest",
		"",
		"Shipment manifest (CSV, XLSX or XLS)",
	)

	// --out flag: Where to write the PDF. Empty means a generated name in
	// the configured output directory.
	reconcileCmd.Flags().StringVar(
		&reportPath,
		"out",
		"",
		"PDF report path (default: generated in output_dir)",
	)

	// --workbook flag: Where to write the XLSX workbook. Empty skips it.
	reconcileCmd.Flags().StringVar(
		&workbookPath,
		"workbook",
		"",
		"Also write an XLSX workbook to this path",
	)

	// --summary flag: Write a plain-text run summary next to the report.
	reconcileCmd.Flags().BoolVar(
		&writeSummary,
		"summary",
		false,
		"Also write a plain-text run summary to output_dir",
	)

	// --json flag: Print the result as JSON.
	reconcileCmd.Flags().BoolVar(
		&jsonOutput,
		"json",
		false,
		"Print the result as JSON instead of the text summary",
	)

	reconcileCmd.MarkFlagRequired("invoice")
	reconcileCmd.MarkFlagRequired("manifest")
}

// =============================================================================
// MAIN RECONCILIATION FUNCTION
// =============================================================================

// runReconcile reconciles the two files and writes every requested output.
//
// PARAMETERS:
//   - out: Where the summary (or the JSON result) is printed.
//
// RETURNS:
//   - An error if a file cannot be loaded, a column cannot be found, or an
//     output cannot be rendered or written.
func runReconcile(out io.Writer) error {
	startTime := time.Now()

	om := utils.NewOutputManager(appConfig.OutputDir, appConfig.ReportFileFormat)
	logger := logging.Default().With().Str("run_id", om.RunID).Logger()

	// =========================================================================
	// STEP 1: PREPARE OUTPUT DIRECTORY AND OPEN INPUT FILES
	// =========================================================================

	if reportPath == "" || writeSummary {
		if err := appConfig.EnsureOutputDir(); err != nil {
			return err
		}
	}

	invoice, invoiceCloser, err := dataset.FileSource(invoicePath)
	if err != nil {
		return recerrors.NewDatasetLoadError(reconcile.InvoiceDataset, invoicePath, err)
	}
	defer invoiceCloser.Close()

	manifest, manifestCloser, err := dataset.FileSource(manifestPath)
	if err != nil {
		return recerrors.NewDatasetLoadError(reconcile.ManifestDataset, manifestPath, err)
	}
	defer manifestCloser.Close()

	// =========================================================================
	// STEP 2: RECONCILE
	// =========================================================================

	engine := reconcile.New(reconcile.OptionsFromConfig(appConfig.Reconciliation, &logger))
	result, err := engine.ReconcileFiles(invoice, manifest, appConfig.CSVSettings)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 3: RENDER OUTPUTS
	// =========================================================================
	// Render everything before writing anything.

	renderer := report.New(report.OptionsFromConfig(appConfig.Report, &logger))

	pdf, err := renderer.Render(result)
	if err != nil {
		return err
	}

	var workbook []byte
	if workbookPath != "" {
		if workbook, err = renderer.RenderWorkbook(result); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUTS
	// =========================================================================

	params := map[string]string{"original": strings.TrimSuffix(invoice.Filename, filepath.Ext(invoice.Filename))}

	pdfPath := reportPath
	if pdfPath == "" {
		pdfPath = om.Path(".pdf", params)
	}
	if err := utils.WriteFile(pdfPath, pdf); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	outputs := []string{pdfPath}

	if workbook != nil {
		if err := utils.WriteFile(workbookPath, workbook); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		outputs = append(outputs, workbookPath)
	}

	if writeSummary {
		summaryPath := om.Path(".txt", params)
		summary := runSummary(om.RunID, startTime, result, outputs)
		if err := utils.WriteSummaryLog(summary, summaryPath); err != nil {
			return err
		}
		outputs = append(outputs, summaryPath)
	}

	logger.Info().Strs("outputs", outputs).Dur("elapsed", time.Since(startTime)).Msg("Reports written")

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printSummary(out, result, outputs)
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// printSummary prints the human-readable run summary.
func printSummary(out io.Writer, result *reconcile.Result, outputs []string) {
	fmt.Fprintln(out, "=== Guide Reconciliation ===")
	fmt.Fprintf(out, "Matched:              %d\n", result.MatchedCount())
	fmt.Fprintf(out, "Missing in Manifest:  %d\n", result.MissingCount())
	fmt.Fprintf(out, "Extra in Invoice:     %d\n", result.ExtraCount())
	fmt.Fprintf(out, "Total Invoiced:       %s\n", report.FormatAmount(result.TotalAmount))
	fmt.Fprintf(out, "Reconciled:           %s\n", report.FormatAmount(result.ReconciledAmount))
	fmt.Fprintf(out, "Pending:              %s\n", report.FormatAmount(result.PendingAmount))

	if warnings := resultWarnings(result); len(warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
	}

	fmt.Fprintln(out, "\nOutputs:")
	for _, path := range outputs {
		fmt.Fprintf(out, "  ✓ %s\n", path)
	}
}

// runSummary builds the run summary written by --summary.
func runSummary(runID string, start time.Time, result *reconcile.Result, outputs []string) utils.RunSummary {
	return utils.RunSummary{
		RunID:             runID,
		StartTime:         start,
		EndTime:           time.Now(),
		InvoiceFile:       invoicePath,
		ManifestFile:      manifestPath,
		OutputFiles:       append([]string(nil), outputs...),
		Matched:           result.MatchedCount(),
		MissingInManifest: result.MissingCount(),
		ExtraInInvoice:    result.ExtraCount(),
		TotalAmount:       report.FormatAmount(result.TotalAmount),
		ReconciledAmount:  report.FormatAmount(result.ReconciledAmount),
		PendingAmount:     report.FormatAmount(result.PendingAmount),
		Warnings:          resultWarnings(result),
	}
}

// resultWarnings describes the data quality problems of a result.
func resultWarnings(result *reconcile.Result) []string {
	if !result.HasWarnings() {
		return nil
	}

	d := result.Diagnostics
	var warnings []string
	if !d.AmountColumnFound {
		warnings = append(warnings, "no amount column found in the invoice file; amounts reported as zero")
	}
	if d.UnparsedAmountRows > 0 {
		warnings = append(warnings, fmt.Sprintf("%d invoice row(s) with an unreadable amount counted as zero", d.UnparsedAmountRows))
	}
	if d.Invoice.RowsWithoutGuide > 0 {
		warnings = append(warnings, fmt.Sprintf("%d invoice row(s) without a guide number were skipped", d.Invoice.RowsWithoutGuide))
	}
	if d.Manifest.RowsWithoutGuide > 0 {
		warnings = append(warnings, fmt.Sprintf("%d manifest row(s) without a guide number were skipped", d.Manifest.RowsWithoutGuide))
	}
	return warnings
}
