// =============================================================================
// Guide Reconciliation - Error Types
// =============================================================================
//
// This package defines the error taxonomy for a reconciliation run. Only three
// failures are ever surfaced to a caller:
//
//   - DatasetLoadError    : an uploaded file could not be decoded as a table
//   - ColumnNotFoundError : no column matched the configured keyword hints
//   - RenderError         : the report document could not be produced
//
// Row-level extraction misses (an unreadable guide or amount cell) are NOT
// errors. They are absorbed into the result and counted in its diagnostics.
//
// Each typed error answers errors.Is for its sentinel so callers can branch
// without type assertions:
//
//	if errors.Is(err, recerrors.ErrColumnNotFound) { ... }
//
// =============================================================================

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrDatasetLoad indicates that an input file could not be parsed as tabular data.
	ErrDatasetLoad = errors.New("dataset load failed")

	// ErrColumnNotFound indicates that a required column could not be resolved.
	ErrColumnNotFound = errors.New("column not found")

	// ErrRender indicates that a report document could not be produced.
	ErrRender = errors.New("render failed")
)

// =============================================================================
// DATASET LOAD ERROR
// =============================================================================

// DatasetLoadError is returned when a dataset cannot be decoded. It is fatal
// for the run: nothing is computed across the two datasets.
type DatasetLoadError struct {
	// Dataset is the logical dataset name ("invoice" or "manifest").
	Dataset string

	// File is the name of the offending file, if known.
	File string

	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *DatasetLoadError) Error() string {
	msg := fmt.Sprintf("failed to load %s dataset", e.Dataset)
	if e.File != "" {
		msg += fmt.Sprintf(" from %q", e.File)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *DatasetLoadError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *DatasetLoadError) Is(target error) bool {
	return target == ErrDatasetLoad
}

// NewDatasetLoadError creates a new DatasetLoadError.
func NewDatasetLoadError(dataset, file string, err error) *DatasetLoadError {
	return &DatasetLoadError{Dataset: dataset, File: file, Err: err}
}

// =============================================================================
// COLUMN NOT FOUND ERROR
// =============================================================================

// ColumnNotFoundError is returned when none of a dataset's columns match the
// keyword hints. It names everything an operator needs to diagnose a
// spreadsheet template mismatch.
type ColumnNotFoundError struct {
	// Dataset is the logical dataset name.
	Dataset string

	// Keywords is the keyword set that was tried, in priority order.
	Keywords []string

	// Columns are the column names present in the dataset.
	Columns []string

	// Suggestion is the header closest to one of the keywords, or empty.
	Suggestion string
}

// Error implements the error interface.
func (e *ColumnNotFoundError) Error() string {
	msg := fmt.Sprintf("no column in %s dataset matches any of [%s]",
		e.Dataset, strings.Join(e.Keywords, ", "))
	if len(e.Columns) > 0 {
		msg += fmt.Sprintf(" (columns: %s)", strings.Join(e.Columns, ", "))
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

// Is implements errors.Is support.
func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// NewColumnNotFoundError creates a new ColumnNotFoundError.
func NewColumnNotFoundError(dataset string, keywords, columns []string) *ColumnNotFoundError {
	return &ColumnNotFoundError{Dataset: dataset, Keywords: keywords, Columns: columns}
}

// =============================================================================
// RENDER ERROR
// =============================================================================

// RenderError is returned when the report document cannot be produced. The
// reconciliation result it was rendering from stays valid.
type RenderError struct {
	// Format is the document format being produced ("pdf", "xlsx").
	Format string

	// Stage names the rendering step that failed.
	Stage string

	// Err is the underlying backend error.
	Err error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("failed to render %s report (%s): %v", e.Format, e.Stage, e.Err)
	}
	return fmt.Sprintf("failed to render %s report: %v", e.Format, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}

// NewRenderError creates a new RenderError.
func NewRenderError(format, stage string, err error) *RenderError {
	return &RenderError{Format: format, Stage: stage, Err: err}
}

// =============================================================================
// HELPERS
// =============================================================================

// IsDatasetLoad reports whether err is or wraps a DatasetLoadError.
func IsDatasetLoad(err error) bool {
	return errors.Is(err, ErrDatasetLoad)
}

// IsColumnNotFound reports whether err is or wraps a ColumnNotFoundError.
func IsColumnNotFound(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

// IsRender reports whether err is or wraps a RenderError.
func IsRender(err error) bool {
	return errors.Is(err, ErrRender)
}

// Is is an alias for the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is an alias for the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
