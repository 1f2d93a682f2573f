// =============================================================================
// Guide Reconciliation - Dataset Loader
// =============================================================================
//
// This module decodes an uploaded file into a Dataset. It is the only place
// that knows about file containers; the reconciliation engine only ever sees
// decoded datasets.
//
// SUPPORTED FORMATS:
//   - CSV  : any delimiter (sniffed or configured), UTF-8 / ISO-8859-1 /
//            Windows-1252
//   - XLSX : first sheet, raw cell values (see xlsx.go)
//   - XLS  : legacy BIFF workbooks, first sheet (see xls.go)
//
// FORMAT DETECTION:
//   The file signature wins over the extension, because users routinely
//   rename exports. "PK\x03\x04" is an XLSX (zip) container and
//   D0 CF 11 E0 is an OLE2 (XLS) container. Anything else is read as CSV.
//
// ERRORS:
//   Every failure is returned as *errors.DatasetLoadError naming the dataset
//   and the file, so the caller can surface it verbatim.
//
// =============================================================================

package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
)

// =============================================================================
// FORMAT
// =============================================================================

// Format is a tabular file container.
type Format int

const (
	// FormatCSV is delimited text.
	FormatCSV Format = iota
	// FormatXLSX is an Office Open XML workbook.
	FormatXLSX
	// FormatXLS is a legacy BIFF workbook.
	FormatXLS
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	default:
		return "csv"
	}
}

var (
	zipSignature = []byte{'P', 'K', 0x03, 0x04}
	oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks the decoder for a file from its content and name.
func DetectFormat(filename string, data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipSignature):
		return FormatXLSX
	case bytes.HasPrefix(data, oleSignature):
		return FormatXLS
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	default:
		return FormatCSV
	}
}

// =============================================================================
// SOURCE
// =============================================================================

// Source is an uploaded file: a display name and its content.
type Source struct {
	// Filename is the original file name. It is used for format detection
	// and error messages only.
	Filename string

	// Reader yields the file content.
	Reader io.Reader
}

// FileSource opens a file on disk as a Source. The caller closes the
// returned closer.
func FileSource(path string) (Source, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return Source{Filename: filepath.Base(path), Reader: f}, f, nil
}

// =============================================================================
// LOADER FUNCTIONS
// =============================================================================

// Load decodes src into a dataset named name.
//
// PARAMETERS:
//   - name: The logical dataset name ("invoice" or "manifest").
//   - src: The uploaded file.
//   - settings: Header layout for all formats; delimiter and encoding for CSV.
//
// RETURNS:
//   - The decoded dataset.
//   - A *errors.DatasetLoadError if the file cannot be read or decoded.
func Load(name string, src Source, settings config.CSVSettings) (*Dataset, error) {
	if src.Reader == nil {
		return nil, recerrors.NewDatasetLoadError(name, src.Filename, fmt.Errorf("no file provided"))
	}

	data, err := io.ReadAll(src.Reader)
	if err != nil {
		return nil, recerrors.NewDatasetLoadError(name, src.Filename, fmt.Errorf("failed to read file: %w", err))
	}

	return LoadBytes(name, src.Filename, data, settings)
}

// LoadFile decodes the file at path.
func LoadFile(name, path string, settings config.CSVSettings) (*Dataset, error) {
	src, closer, err := FileSource(path)
	if err != nil {
		return nil, recerrors.NewDatasetLoadError(name, path, err)
	}
	defer closer.Close()

	return Load(name, src, settings)
}

// LoadBytes decodes in-memory file content.
func LoadBytes(name, filename string, data []byte, settings config.CSVSettings) (*Dataset, error) {
	settings = settings.WithDefaults()

	var (
		records [][]string
		err     error
	)

	format := DetectFormat(filename, data)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatXLS:
		records, err = readXLS(data)
	default:
		records, err = readCSV(data, settings)
	}
	if err != nil {
		return nil, recerrors.NewDatasetLoadError(name, filename, fmt.Errorf("failed to decode %s: %w", format, err))
	}

	headers, err := extractHeaders(records, settings)
	if err != nil {
		return nil, recerrors.NewDatasetLoadError(name, filename, err)
	}

	start := settings.DataStartRow - 1
	if start > len(records) {
		start = len(records)
	}

	return New(name, headers, records[start:]).WithSource(filename), nil
}

// extractHeaders extracts and merges the header rows.
//
// MULTI-LINE HEADER HANDLING:
//   Some exports split a header across rows. Non-empty parts of each column
//   are joined with a space:
//
//   Row 1: "Numero", "",      "Valor"
//   Row 2: "Guia",   "Fecha", "Subtotal"
//   Result: "Numero Guia", "Fecha", "Valor Subtotal"
func extractHeaders(allRows [][]string, settings config.CSVSettings) ([]string, error) {
	if len(allRows) == 0 || isRowEmpty(allRows[0]) {
		return nil, fmt.Errorf("file has no header row")
	}
	if len(allRows) < settings.HeaderRows {
		return nil, fmt.Errorf("file has fewer rows than header_rows setting")
	}

	if settings.HeaderRows == 1 {
		return allRows[0], nil
	}

	maxCols := 0
	for i := 0; i < settings.HeaderRows; i++ {
		if len(allRows[i]) > maxCols {
			maxCols = len(allRows[i])
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for row := 0; row < settings.HeaderRows; row++ {
			if col < len(allRows[row]) {
				if value := strings.TrimSpace(allRows[row][col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}

	return headers, nil
}
