// =============================================================================
// Guide Reconciliation - Output File Manager
// =============================================================================
//
// This module provides the file utilities the CLI uses to place its output:
//   - Output directory management
//   - Report file naming from a pattern
//   - Atomic report writes
//   - Run summary generation
//
// NAMING:
//   Every run gets a single run id. The PDF, the XLSX workbook and the run
//   summary of one run share it, so they sort together in the output
//   directory:
//
//     reconciliation_20240115_143022_a1b2c3d4-....pdf
//     reconciliation_20240115_143022_a1b2c3d4-....xlsx
//     reconciliation_20240115_143022_a1b2c3d4-....txt
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// OUTPUT MANAGER
// =============================================================================

// OutputManager places report files for one run.
type OutputManager struct {
	// OutputDir is the directory where reports are written.
	OutputDir string

	// FileFormat is the file name pattern, without extension.
	// See GenerateOutputFileName for placeholders.
	FileFormat string

	// RunID identifies the run. It fills the {uuid} placeholder.
	RunID string

	// Now is the time used for the {timestamp}, {date} and {time}
	// placeholders. It is fixed when the manager is created.
	Now time.Time
}

// NewOutputManager creates an OutputManager with a fresh run id.
func NewOutputManager(outputDir, fileFormat string) *OutputManager {
	return &OutputManager{
		OutputDir:  outputDir,
		FileFormat: fileFormat,
		RunID:      uuid.New().String(),
		Now:        time.Now(),
	}
}

// Path returns the output path for this run's file with extension ext.
//
// PARAMETERS:
//   - ext: The file extension, with or without the leading dot.
//   - params: Extra placeholder values, such as {"original": "facturas"}.
func (om *OutputManager) Path(ext string, params map[string]string) string {
	values := map[string]string{"uuid": om.RunID}
	for k, v := range params {
		values[k] = v
	}
	name := generateFileName(om.FileFormat, ext, om.Now, values)
	return filepath.Join(om.OutputDir, name)
}

// WriteFile writes data to path atomically: the content goes to a temporary
// file in the same directory which is then renamed over path.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID unless params sets "uuid"
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {original}  - Original file name (without extension), if
//                             given in params
//   - ext: The extension to ensure, e.g. ".pdf".
//   - params: A map of placeholder values.
//
// RETURNS:
//   - The generated file name.
//
// EXAMPLE:
//   format: "reconciliation_{timestamp}_{uuid}"
//   ext:    ".pdf"
//   output: "reconciliation_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.pdf"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	values := map[string]string{"uuid": uuid.New().String()}
	for k, v := range params {
		values[k] = v
	}
	return generateFileName(format, ext, time.Now(), values)
}

func generateFileName(format, ext string, now time.Time, params map[string]string) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}

	return result
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a reconciliation run.
type RunSummary struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	InvoiceFile  string
	ManifestFile string
	OutputFiles  []string

	Matched           int
	MissingInManifest int
	ExtraInInvoice    int

	TotalAmount      string
	ReconciledAmount string
	PendingAmount    string

	Warnings []string
}

// WriteSummaryLog writes a run summary to a text file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - path: The file to write.
//
// RETURNS:
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, path string) error {
	var b strings.Builder
	writer := bufio.NewWriter(&b)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Guide Reconciliation - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Invoice File:   %s\n"+
		"  Manifest File:  %s\n\n"+
		"Guides:\n"+
		"  Matched:              %d\n"+
		"  Missing in Manifest:  %d\n"+
		"  Extra in Invoice:     %d\n\n"+
		"Amounts:\n"+
		"  Total:       %s\n"+
		"  Reconciled:  %s\n"+
		"  Pending:     %s\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.InvoiceFile,
		summary.ManifestFile,
		summary.Matched,
		summary.MissingInManifest,
		summary.ExtraInInvoice,
		summary.TotalAmount,
		summary.ReconciledAmount,
		summary.PendingAmount)

	if len(summary.OutputFiles) > 0 {
		writer.WriteString("Output Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.OutputFiles {
			fmt.Fprintf(writer, "  %s\n", f)
		}
		writer.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		writer.WriteString("Warnings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}

	return WriteFile(path, []byte(b.String()))
}
