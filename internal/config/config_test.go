package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMainConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, DefaultGuideKeywords, cfg.Reconciliation.GuideKeywords)
	assert.Equal(t, DefaultAmountKeywords, cfg.Reconciliation.AmountKeywords)
	assert.Equal(t, "auto", cfg.CSVSettings.Delimiter)
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, 2, cfg.CSVSettings.DataStartRow)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Report.ListColumns)
}

func TestLoadMainConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output_dir: ./reports
log_level: debug
server:
  port: "9090"
reconciliation:
  guide_keywords: ["GUIA", "TRACKING"]
csv_settings:
  delimiter: ";"
  encoding: Windows-1252
report:
  title: Conciliacion Fashion Club
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./reports", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"GUIA", "TRACKING"}, cfg.Reconciliation.GuideKeywords)
	assert.Equal(t, DefaultAmountKeywords, cfg.Reconciliation.AmountKeywords)
	assert.Equal(t, ";", cfg.CSVSettings.Delimiter)
	assert.Equal(t, "Conciliacion Fashion Club", cfg.Report.Title)
}

func TestParseRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty keyword", "reconciliation:\n  guide_keywords: [\"GUIDE\", \" \"]\n"},
		{"data before header", "csv_settings:\n  header_rows: 2\n  data_start_row: 2\n"},
		{"unknown encoding", "csv_settings:\n  encoding: EBCDIC\n"},
		{"too many list columns", "report:\n  list_columns: 12\n"},
		{"bad yaml", "output_dir: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDefaultKeywordsAreCopied(t *testing.T) {
	cfg := Default()
	cfg.Reconciliation.GuideKeywords[0] = "CHANGED"
	assert.Equal(t, "GUIDE", DefaultGuideKeywords[0])
}

func TestEnsureOutputDir(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, cfg.EnsureOutputDir())
	assert.DirExists(t, cfg.OutputDir)
}

func TestExampleConfigParses(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Contains(t, cfg.Reconciliation.GuideKeywords, "GUIA")
	assert.Contains(t, cfg.Reconciliation.AmountKeywords, "VALOR")
	assert.Equal(t, 1, cfg.CSVSettings.HeaderRows)
	assert.Equal(t, "Conciliacion de Guias", cfg.Report.Title)
}
