// =============================================================================
// Guide Reconciliation - Configuration Module
// =============================================================================
//
// This module loads the YAML configuration shared by the CLI and the HTTP
// host. Every setting has a default, so a missing config file is not an
// error: the tools run with the built-in keyword hints and CSV settings.
//
// CONFIGURATION FILE (config.yaml):
//   output_dir:          where the CLI writes reports
//   report_file_format:  file name pattern ({uuid}, {timestamp}, {date})
//   log_level / log_format / log_file
//   server:              HTTP port and upload limit
//   reconciliation:      keyword hints for the guide and amount columns
//   csv_settings:        delimiter, header rows, encoding of uploaded CSVs
//   report:              title block of the rendered PDF
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// DEFAULT KEYWORD HINTS
// =============================================================================

// DefaultGuideKeywords are the hints used to find the guide / tracking column.
// Order is priority order; column order still decides ties.
var DefaultGuideKeywords = []string{"GUIDE", "TRACKING", "MANIFEST-REF", "REFERENCE"}

// DefaultAmountKeywords are the hints used to find the invoice amount column.
var DefaultAmountKeywords = []string{"SUBTOTAL", "AMOUNT", "VALUE", "PRICE"}

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// OutputDir is where the CLI writes generated reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ReportFileFormat is the file name pattern for generated reports,
	// without extension. Placeholders:
	//   {uuid}      - the run id
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - current date (YYYYMMDD)
	// Default: "reconciliation_{timestamp}_{uuid}"
	ReportFileFormat string `yaml:"report_file_format"`

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json", "console" or "auto".
	// Default: "auto"
	LogFormat string `yaml:"log_format"`

	// LogFile is an optional log file path. Empty means stderr.
	LogFile string `yaml:"log_file"`

	// Server holds the HTTP host settings.
	Server ServerSettings `yaml:"server"`

	// Reconciliation holds the column keyword hints.
	Reconciliation ReconciliationSettings `yaml:"reconciliation"`

	// CSVSettings controls how uploaded CSV files are decoded.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// Report holds the rendered document settings.
	Report ReportSettings `yaml:"report"`
}

// ServerSettings holds the HTTP host settings.
type ServerSettings struct {
	// Port is the TCP port to listen on.
	// Default: "8080"
	Port string `yaml:"port"`

	// MaxUploadMB caps the request body of an upload; larger requests get
	// 413. It is also the multipart size kept in memory.
	// Default: 32
	MaxUploadMB int64 `yaml:"max_upload_mb"`
}

// ReconciliationSettings holds the keyword hints used by the column resolver.
type ReconciliationSettings struct {
	// GuideKeywords find the guide / tracking column on both datasets.
	GuideKeywords []string `yaml:"guide_keywords"`

	// AmountKeywords find the amount column on the invoice dataset.
	AmountKeywords []string `yaml:"amount_keywords"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing uploaded CSV files.
type CSVSettings struct {
	// Delimiter separates fields. "auto" sniffs the header line.
	// Common values: "auto", ",", ";", "|", "tab"
	// Default: "auto"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows. Multi-row headers are merged
	// with a space.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-based row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the character encoding of the file.
	// Supported: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// ReportSettings holds the title block of the rendered report.
type ReportSettings struct {
	// Title is printed at the top of the first page.
	Title string `yaml:"title"`

	// Subtitle is printed under the title.
	Subtitle string `yaml:"subtitle"`

	// Author is stored in the document metadata.
	Author string `yaml:"author"`

	// ListColumns is the number of identifier columns on drill-down pages.
	// Default: 4
	ListColumns int `yaml:"list_columns"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with all defaults applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. An empty path or a
//     file that does not exist yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file exists but cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration bytes, applies defaults and validates.
func Parse(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset option.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ReportFileFormat == "" {
		config.ReportFileFormat = "reconciliation_{timestamp}_{uuid}"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "auto"
	}
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 32
	}
	if len(config.Reconciliation.GuideKeywords) == 0 {
		config.Reconciliation.GuideKeywords = append([]string(nil), DefaultGuideKeywords...)
	}
	if len(config.Reconciliation.AmountKeywords) == 0 {
		config.Reconciliation.AmountKeywords = append([]string(nil), DefaultAmountKeywords...)
	}

	config.CSVSettings = config.CSVSettings.WithDefaults()

	if config.Report.Title == "" {
		config.Report.Title = "Guide Reconciliation Report"
	}
	if config.Report.Subtitle == "" {
		config.Report.Subtitle = "Invoices vs. shipment manifest"
	}
	if config.Report.ListColumns == 0 {
		config.Report.ListColumns = 4
	}
}

// WithDefaults returns a copy of s with unset fields defaulted.
func (s CSVSettings) WithDefaults() CSVSettings {
	if s.Delimiter == "" {
		s.Delimiter = "auto"
	}
	if s.HeaderRows == 0 {
		s.HeaderRows = 1
	}
	if s.DataStartRow == 0 {
		s.DataStartRow = s.HeaderRows + 1
	}
	if s.Encoding == "" {
		s.Encoding = "UTF-8"
	}
	return s
}

// validateMainConfig validates the configuration.
func validateMainConfig(config *MainConfig) error {
	for _, kw := range config.Reconciliation.GuideKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("reconciliation.guide_keywords contains an empty keyword")
		}
	}
	for _, kw := range config.Reconciliation.AmountKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("reconciliation.amount_keywords contains an empty keyword")
		}
	}

	if config.CSVSettings.HeaderRows < 1 {
		return fmt.Errorf("csv_settings.header_rows must be at least 1")
	}
	if config.CSVSettings.DataStartRow <= config.CSVSettings.HeaderRows {
		return fmt.Errorf("csv_settings.data_start_row must come after the header rows")
	}

	switch strings.ToUpper(config.CSVSettings.Encoding) {
	case "UTF-8", "UTF8", "ISO-8859-1", "LATIN1", "WINDOWS-1252", "CP1252":
	default:
		return fmt.Errorf("csv_settings.encoding %q is not supported", config.CSVSettings.Encoding)
	}

	if config.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	if config.Report.ListColumns < 1 || config.Report.ListColumns > 8 {
		return fmt.Errorf("report.list_columns must be between 1 and 8")
	}

	return nil
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (c *MainConfig) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.OutputDir, err)
	}
	return nil
}
