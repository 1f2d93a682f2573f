package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/wilo3161/aropostale-logistics-v2/internal/report"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_OUTPUT", "discard")

	invoicePath, manifestPath, reportPath, workbookPath = "", "", "", ""
	writeSummary, jsonOutput, verbose = false, false, false

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T) (dir, invoice, manifest string) {
	t.Helper()
	dir = t.TempDir()

	invoice = filepath.Join(dir, "facturas.csv")
	require.NoError(t, os.WriteFile(invoice, []byte("Guide;Subtotal\nLC001;10\nLC002;20\nLC003;30\n"), 0o644))

	manifest = filepath.Join(dir, "manifiesto.csv")
	require.NoError(t, os.WriteFile(manifest, []byte("Tracking\nLC002\nLC003\nLC004\n"), 0o644))

	return dir, invoice, manifest
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "output_dir: " + filepath.Join(dir, "out") + "\nreport_file_format: \"{original}_{uuid}\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReconcileCommandWritesOutputs(t *testing.T) {
	dir, invoice, manifest := writeFixtures(t)
	pdfPath := filepath.Join(dir, "report.pdf")
	xlsxPath := filepath.Join(dir, "report.xlsx")

	out, err := execute(t, "reconcile",
		"--config", writeConfig(t, dir),
		"--invoice", invoice,
		"--manifest", manifest,
		"--out", pdfPath,
		"--workbook", xlsxPath,
		"--summary",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "=== Guide Reconciliation ===")
	assert.Contains(t, out, "Matched:              2")
	assert.Contains(t, out, "Missing in Manifest:  1")
	assert.Contains(t, out, "Extra in Invoice:     1")
	assert.Contains(t, out, "Pending:              $10.00")
	assert.NotContains(t, out, "Warnings:")

	doc, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	require.NoError(t, report.Validate(doc))

	assert.FileExists(t, xlsxPath)

	summaries, err := filepath.Glob(filepath.Join(dir, "out", "facturas_*.txt"))
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	summary, err := os.ReadFile(summaries[0])
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Missing in Manifest:  1")
}

func TestReconcileCommandJSON(t *testing.T) {
	dir, invoice, manifest := writeFixtures(t)

	out, err := execute(t, "reconcile",
		"--config", writeConfig(t, dir),
		"--invoice", invoice,
		"--manifest", manifest,
		"--json",
	)
	require.NoError(t, err)

	var result struct {
		Matched           []string `json:"matched"`
		MissingInManifest []string `json:"missing_in_manifest"`
		ExtraInInvoice    []string `json:"extra_in_invoice"`
		TotalAmount       string   `json:"total_amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []string{"LC002", "LC003"}, result.Matched)
	assert.Equal(t, []string{"LC004"}, result.MissingInManifest)
	assert.Equal(t, []string{"LC001"}, result.ExtraInInvoice)
	assert.Equal(t, "60", result.TotalAmount)

	reports, err := filepath.Glob(filepath.Join(dir, "out", "facturas_*.pdf"))
	require.NoError(t, err)
	assert.Len(t, reports, 1, "the report gets a generated name in output_dir")
}

func TestReconcileCommandWarnings(t *testing.T) {
	dir := t.TempDir()
	invoice := filepath.Join(dir, "facturas.csv")
	require.NoError(t, os.WriteFile(invoice, []byte("Guide,Fecha\nLC001,2024-01-01\n,2024-01-02\n"), 0o644))
	manifest := filepath.Join(dir, "manifiesto.csv")
	require.NoError(t, os.WriteFile(manifest, []byte("Guide\nLC001\n"), 0o644))

	out, err := execute(t, "reconcile",
		"--config", writeConfig(t, dir),
		"--invoice", invoice,
		"--manifest", manifest,
		"--out", filepath.Join(dir, "report.pdf"),
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "no amount column found")
	assert.Contains(t, out, "1 invoice row(s) without a guide number")
}

func TestReconcileCommandMissingFile(t *testing.T) {
	dir, _, manifest := writeFixtures(t)
	pdfPath := filepath.Join(dir, "report.pdf")

	_, err := execute(t, "reconcile",
		"--config", writeConfig(t, dir),
		"--invoice", filepath.Join(dir, "absent.csv"),
		"--manifest", manifest,
		"--out", pdfPath,
	)
	require.Error(t, err)
	assert.True(t, recerrors.IsDatasetLoad(err))
	assert.NoFileExists(t, pdfPath)
}

func TestReconcileCommandColumnNotFound(t *testing.T) {
	dir, invoice, _ := writeFixtures(t)
	manifest := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(manifest, []byte("Fecha,Bultos\n2024-01-01,3\n"), 0o644))
	pdfPath := filepath.Join(dir, "report.pdf")

	_, err := execute(t, "reconcile",
		"--config", writeConfig(t, dir),
		"--invoice", invoice,
		"--manifest", manifest,
		"--out", pdfPath,
	)
	require.Error(t, err)
	assert.True(t, recerrors.IsColumnNotFound(err))
	assert.NoFileExists(t, pdfPath)
}

func TestReconcileCommandUnwritableOutputDir(t *testing.T) {
	dir, invoice, manifest := writeFixtures(t)
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output_dir: "+filepath.Join(blocker, "out")+"\n"), 0o644))

	_, err := execute(t, "reconcile",
		"--config", cfgPath,
		"--invoice", invoice,
		"--manifest", manifest,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
}

func TestLoggingConfigPrecedence(t *testing.T) {
	cfg, err := config.Parse([]byte("log_level: warn\nlog_format: json\nlog_file: recon.log\n"))
	require.NoError(t, err)

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_OUTPUT", "")
	verbose = false
	t.Cleanup(func() { verbose = false })

	lc := loggingConfig(cfg)
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "console", lc.Format)
	assert.Equal(t, "recon.log", lc.Output)

	t.Setenv("LOG_OUTPUT", "stdout")
	assert.Equal(t, "stdout", loggingConfig(cfg).Output)

	verbose = true
	assert.Equal(t, "debug", loggingConfig(cfg).Level)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Guide Reconciliation")
	assert.Contains(t, out, Version)
}
