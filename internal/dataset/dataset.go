// =============================================================================
// Guide Reconciliation - Tabular Dataset
// =============================================================================
//
// This module holds the in-memory table that the reconciliation engine reads.
// A Dataset is built once per run from a decoded file (CSV, XLSX or XLS) and
// is immutable afterwards: there are no setters, and accessors hand out
// copies.
//
// STRUCTURE:
//   - Headers keep the declared (original) column order. The column resolver
//     depends on that order for its tie-break.
//   - Rows are stored positionally and addressed by column name.
//   - Every value is a tagged Cell (empty | text | number).
//
// =============================================================================

package dataset

import (
	"fmt"
	"strings"
)

// =============================================================================
// DATASET STRUCTURE
// =============================================================================

// Dataset is an ordered sequence of rows keyed by column name.
type Dataset struct {
	// name is the logical dataset name ("invoice", "manifest").
	name string

	// sourceFile is the file the dataset was decoded from, if any.
	sourceFile string

	// headers are the column names in declared order.
	headers []string

	// index maps a column name to its position in headers.
	index map[string]int

	// rows holds one Cell per header for each data row.
	rows [][]Cell
}

// New builds a dataset from decoded string records. Headers are cleaned the
// same way for every source format: trimmed, blanks replaced by
// "Column_N", duplicates suffixed with " (2)", " (3)", ...
//
// PARAMETERS:
//   - name: The logical dataset name.
//   - headers: The raw header row.
//   - records: The data rows. Short rows are padded with empty cells, and
//     rows that are entirely blank are skipped.
func New(name string, headers []string, records [][]string) *Dataset {
	ds := newDataset(name, headers)

	for _, record := range records {
		if isRowEmpty(record) {
			continue
		}
		row := make([]Cell, len(ds.headers))
		for col := range ds.headers {
			if col < len(record) {
				row[col] = NewCell(record[col])
			}
		}
		ds.rows = append(ds.rows, row)
	}

	return ds
}

// FromCells builds a dataset from already-tagged cells. It is mainly useful
// for callers that decode spreadsheets themselves.
func FromCells(name string, headers []string, rows [][]Cell) *Dataset {
	ds := newDataset(name, headers)

	for _, cells := range rows {
		row := make([]Cell, len(ds.headers))
		copy(row, cells)
		ds.rows = append(ds.rows, row)
	}

	return ds
}

func newDataset(name string, headers []string) *Dataset {
	cleaned := cleanHeaders(headers)
	index := make(map[string]int, len(cleaned))
	for i, h := range cleaned {
		index[h] = i
	}
	return &Dataset{
		name:    name,
		headers: cleaned,
		index:   index,
		rows:    [][]Cell{},
	}
}

// WithSource returns a copy of the dataset annotated with its source file.
func (d *Dataset) WithSource(file string) *Dataset {
	cp := *d
	cp.sourceFile = file
	return &cp
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Name returns the logical dataset name.
func (d *Dataset) Name() string { return d.name }

// SourceFile returns the file the dataset was decoded from.
func (d *Dataset) SourceFile() string { return d.sourceFile }

// Headers returns a copy of the column names in declared order.
func (d *Dataset) Headers() []string {
	return append([]string(nil), d.headers...)
}

// Len returns the number of data rows.
func (d *Dataset) Len() int { return len(d.rows) }

// HasColumn reports whether the dataset has a column with this exact name.
func (d *Dataset) HasColumn(column string) bool {
	_, ok := d.index[column]
	return ok
}

// Cell returns the value at row i in the named column. Out of range rows and
// unknown columns yield an empty cell.
func (d *Dataset) Cell(i int, column string) Cell {
	col, ok := d.index[column]
	if !ok || i < 0 || i >= len(d.rows) {
		return Cell{}
	}
	return d.rows[i][col]
}

// Column returns a copy of all values in the named column.
func (d *Dataset) Column(column string) ([]Cell, error) {
	col, ok := d.index[column]
	if !ok {
		return nil, fmt.Errorf("dataset %s has no column %q", d.name, column)
	}
	values := make([]Cell, len(d.rows))
	for i, row := range d.rows {
		values[i] = row[col]
	}
	return values, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanHeaders trims header values, names blank headers after their
// position and disambiguates duplicates.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	seen := make(map[string]int, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		seen[header]++
		if n := seen[header]; n > 1 {
			header = fmt.Sprintf("%s (%d)", header, n)
		}

		cleaned[i] = header
	}

	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
