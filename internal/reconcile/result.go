package reconcile

import "github.com/shopspring/decimal"

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of reconciling an invoice dataset against a shipment
// manifest. A Result is built fresh for every run and owned by the caller.
//
// The three identifier lists are sorted and free of duplicates. Matched never
// shares an element with MissingInManifest or ExtraInInvoice.
type Result struct {
	// Matched holds guides present in both datasets.
	Matched []GuideID `json:"matched"`

	// MissingInManifest holds guides on the manifest that were never
	// invoiced (voided shipments).
	MissingInManifest []GuideID `json:"missing_in_manifest"`

	// ExtraInInvoice holds invoiced guides absent from the manifest
	// (surplus).
	ExtraInInvoice []GuideID `json:"extra_in_invoice"`

	// TotalAmount sums the amount column over every invoice row.
	TotalAmount decimal.Decimal `json:"total_amount"`

	// ReconciledAmount sums invoice rows whose guide is matched.
	ReconciledAmount decimal.Decimal `json:"reconciled_amount"`

	// PendingAmount is TotalAmount minus ReconciledAmount. It includes rows
	// without a guide.
	PendingAmount decimal.Decimal `json:"pending_amount"`

	// ExtraAmount sums invoice rows whose guide is in ExtraInInvoice.
	ExtraAmount decimal.Decimal `json:"extra_amount"`

	// InvoiceGuideColumn is the resolved guide column of the invoice dataset.
	InvoiceGuideColumn string `json:"invoice_guide_column"`

	// ManifestGuideColumn is the resolved guide column of the manifest.
	ManifestGuideColumn string `json:"manifest_guide_column"`

	// AmountColumn is the resolved invoice amount column. Empty when no
	// column matched, in which case every amount is zero.
	AmountColumn string `json:"amount_column,omitempty"`

	// Diagnostics reports rows that contributed nothing. It never changes
	// the sets or the sums.
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics describes data quality problems found during a run.
type Diagnostics struct {
	// Invoice describes the invoice dataset.
	Invoice DatasetDiagnostics `json:"invoice"`

	// Manifest describes the manifest dataset.
	Manifest DatasetDiagnostics `json:"manifest"`

	// AmountColumnFound is false when no invoice column matched the amount
	// keywords.
	AmountColumnFound bool `json:"amount_column_found"`

	// UnparsedAmountRows counts invoice rows whose amount cell was blank or
	// could not be parsed. Those rows count as zero.
	UnparsedAmountRows int `json:"unparsed_amount_rows"`
}

// DatasetDiagnostics describes one input dataset.
type DatasetDiagnostics struct {
	// SourceFile is the file the dataset was decoded from, if known.
	SourceFile string `json:"source_file,omitempty"`

	// Rows is the number of data rows.
	Rows int `json:"rows"`

	// RowsWithoutGuide counts rows with no extractable guide number.
	RowsWithoutGuide int `json:"rows_without_guide"`

	// DistinctGuides is the number of unique guides after normalization.
	DistinctGuides int `json:"distinct_guides"`
}

// MatchedCount returns the number of matched guides.
func (r *Result) MatchedCount() int { return len(r.Matched) }

// MissingCount returns the number of guides missing from the invoices.
func (r *Result) MissingCount() int { return len(r.MissingInManifest) }

// ExtraCount returns the number of invoiced guides absent from the manifest.
func (r *Result) ExtraCount() int { return len(r.ExtraInInvoice) }

// CompletenessRatio returns ReconciledAmount / TotalAmount, or zero when
// nothing was invoiced.
func (r *Result) CompletenessRatio() decimal.Decimal {
	if r.TotalAmount.IsZero() {
		return decimal.Zero
	}
	return r.ReconciledAmount.Div(r.TotalAmount)
}

// HasWarnings reports whether any row was dropped or the amount column was
// missing.
func (r *Result) HasWarnings() bool {
	d := r.Diagnostics
	return !d.AmountColumnFound ||
		d.UnparsedAmountRows > 0 ||
		d.Invoice.RowsWithoutGuide > 0 ||
		d.Manifest.RowsWithoutGuide > 0
}
