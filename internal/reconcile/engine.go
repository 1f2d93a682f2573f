// =============================================================================
// Guide Reconciliation - Reconciliation Engine
// =============================================================================
//
// This module compares the guides billed on the invoice extract against the
// guides on the shipment manifest and derives the monetary KPIs.
//
// PIPELINE:
//   1. Resolve the guide column on both datasets
//   2. Normalize every row's guide; duplicates collapse into sets
//   3. matched = invoice ∩ manifest
//      missing = manifest − invoice
//      extra   = invoice − manifest
//   4. Resolve the amount column on the invoice dataset
//   5. total = all invoice rows, reconciled = rows with a matched guide,
//      pending = total − reconciled
//
// FAILURE SEMANTICS:
//   - A dataset that cannot be loaded aborts the run before any computation.
//   - A dataset with rows but no guide column aborts with a
//     ColumnNotFoundError.
//   - A missing amount column is tolerated: the sets are still produced and
//     every amount is zero.
//   - Rows with no guide or an unparseable amount are never errors. They are
//     dropped (or counted as zero) and reported in Diagnostics.
//
// CONCURRENCY:
//   An Engine holds no mutable state. The same Engine may be used from
//   several goroutines.
//
// =============================================================================

package reconcile

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	"github.com/wilo3161/aropostale-logistics-v2/internal/dataset"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
)

// Logical dataset names used in errors and logs.
const (
	InvoiceDataset  = "invoice"
	ManifestDataset = "manifest"
)

// =============================================================================
// ENGINE STRUCTURE
// =============================================================================

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// GuideKeywords find the guide column on both datasets.
	// Default: config.DefaultGuideKeywords
	GuideKeywords []string

	// AmountKeywords find the amount column on the invoice dataset.
	// Default: config.DefaultAmountKeywords
	AmountKeywords []string

	// Logger receives resolution decisions and warnings.
	// Default: logging.Default()
	Logger *zerolog.Logger
}

// OptionsFromConfig builds engine options from the loaded configuration.
func OptionsFromConfig(cfg config.ReconciliationSettings, logger *zerolog.Logger) Options {
	return Options{
		GuideKeywords:  cfg.GuideKeywords,
		AmountKeywords: cfg.AmountKeywords,
		Logger:         logger,
	}
}

// Engine reconciles invoice datasets against manifests.
type Engine struct {
	guideKeywords  []string
	amountKeywords []string
	logger         zerolog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		guideKeywords:  slices.Clone(opts.GuideKeywords),
		amountKeywords: slices.Clone(opts.AmountKeywords),
	}
	if len(e.guideKeywords) == 0 {
		e.guideKeywords = slices.Clone(config.DefaultGuideKeywords)
	}
	if len(e.amountKeywords) == 0 {
		e.amountKeywords = slices.Clone(config.DefaultAmountKeywords)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	e.logger = logger.With().Str("component", "reconcile").Logger()

	return e
}

// Reconcile runs the engine with default options.
func Reconcile(invoice, manifest *dataset.Dataset) (*Result, error) {
	return New(Options{}).Reconcile(invoice, manifest)
}

// ReconcileFiles decodes both files and reconciles them with default options.
func ReconcileFiles(invoice, manifest dataset.Source, settings config.CSVSettings) (*Result, error) {
	return New(Options{}).ReconcileFiles(invoice, manifest, settings)
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// ReconcileFiles decodes both files and reconciles them.
//
// PARAMETERS:
//   - invoice: The invoicing extract.
//   - manifest: The shipment manifest extract.
//   - settings: Header layout, delimiter and encoding for both files.
//
// RETURNS:
//   - The reconciliation result.
//   - A *errors.DatasetLoadError naming the file if either file cannot be
//     decoded. Nothing is computed in that case.
//   - A *errors.ColumnNotFoundError if a guide column cannot be resolved.
func (e *Engine) ReconcileFiles(invoice, manifest dataset.Source, settings config.CSVSettings) (*Result, error) {
	inv, err := dataset.Load(InvoiceDataset, invoice, settings)
	if err != nil {
		return nil, err
	}

	man, err := dataset.Load(ManifestDataset, manifest, settings)
	if err != nil {
		return nil, err
	}

	return e.Reconcile(inv, man)
}

// Reconcile compares two decoded datasets.
//
// PARAMETERS:
//   - invoice: The invoicing dataset. Its amount column feeds the KPIs.
//   - manifest: The shipment manifest dataset.
//
// RETURNS:
//   - A new Result. The inputs are not modified.
//   - A *errors.DatasetLoadError if a dataset is nil.
//   - A *errors.ColumnNotFoundError if a dataset has headers but no guide
//     column, even when it has no rows.
func (e *Engine) Reconcile(invoice, manifest *dataset.Dataset) (*Result, error) {
	start := time.Now()

	if invoice == nil {
		return nil, recerrors.NewDatasetLoadError(InvoiceDataset, "", fmt.Errorf("dataset is nil"))
	}
	if manifest == nil {
		return nil, recerrors.NewDatasetLoadError(ManifestDataset, "", fmt.Errorf("dataset is nil"))
	}

	// Step 1: Resolve the guide columns
	invColumn, err := e.resolveGuideColumn(invoice)
	if err != nil {
		return nil, err
	}
	manColumn, err := e.resolveGuideColumn(manifest)
	if err != nil {
		return nil, err
	}

	// Step 2: Normalize guides per row
	invGuides, invDiag := collectGuides(invoice, invColumn)
	manGuides, manDiag := collectGuides(manifest, manColumn)

	invSet := toSet(invGuides)
	manSet := toSet(manGuides)
	invDiag.DistinctGuides = len(invSet)
	manDiag.DistinctGuides = len(manSet)

	// Step 3: Set algebra
	result := &Result{
		Matched:             intersect(invSet, manSet),
		MissingInManifest:   difference(manSet, invSet),
		ExtraInInvoice:      difference(invSet, manSet),
		TotalAmount:         decimal.Zero,
		ReconciledAmount:    decimal.Zero,
		PendingAmount:       decimal.Zero,
		ExtraAmount:         decimal.Zero,
		InvoiceGuideColumn:  invColumn,
		ManifestGuideColumn: manColumn,
		Diagnostics: Diagnostics{
			Invoice:  invDiag,
			Manifest: manDiag,
		},
	}

	// Step 4 and 5: Monetary KPIs
	amountColumn, ok := ResolveColumn(invoice.Headers(), e.amountKeywords)
	if !ok {
		e.logger.Warn().
			Strs("columns", invoice.Headers()).
			Strs("keywords", e.amountKeywords).
			Msg("No amount column in invoice dataset; monetary KPIs reported as zero")
	} else {
		e.logger.Debug().Str("column", amountColumn).Msg("Resolved invoice amount column")
		result.AmountColumn = amountColumn
		result.Diagnostics.AmountColumnFound = true
		e.sumAmounts(result, invoice, amountColumn, invGuides, manSet)
	}

	e.logger.Info().
		Int("matched", result.MatchedCount()).
		Int("missing_in_manifest", result.MissingCount()).
		Int("extra_in_invoice", result.ExtraCount()).
		Str("total_amount", result.TotalAmount.StringFixed(2)).
		Str("pending_amount", result.PendingAmount.StringFixed(2)).
		Dur("elapsed", time.Since(start)).
		Msg("Reconciliation complete")

	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// resolveGuideColumn finds the guide column of ds. Only a dataset with no
// headers at all may lack one; it contributes no guides.
func (e *Engine) resolveGuideColumn(ds *dataset.Dataset) (string, error) {
	column, ok := ResolveColumn(ds.Headers(), e.guideKeywords)
	if ok {
		e.logger.Debug().
			Str("dataset", ds.Name()).
			Str("column", column).
			Msg("Resolved guide column")
		return column, nil
	}

	if len(ds.Headers()) == 0 {
		e.logger.Debug().Str("dataset", ds.Name()).Msg("Dataset without headers has no guide column")
		return "", nil
	}

	err := recerrors.NewColumnNotFoundError(ds.Name(), e.guideKeywords, ds.Headers())
	err.Suggestion = suggestColumn(ds.Headers(), e.guideKeywords)
	return "", err
}

// collectGuides returns the normalized guide of every row, in row order.
// Rows without a guide hold an empty GuideID.
func collectGuides(ds *dataset.Dataset, column string) ([]GuideID, DatasetDiagnostics) {
	diag := DatasetDiagnostics{
		SourceFile: ds.SourceFile(),
		Rows:       ds.Len(),
	}

	guides := make([]GuideID, ds.Len())
	if column == "" {
		diag.RowsWithoutGuide = ds.Len()
		return guides, diag
	}

	for i := range guides {
		if id, ok := GuideFromCell(ds.Cell(i, column)); ok {
			guides[i] = id
		} else {
			diag.RowsWithoutGuide++
		}
	}

	return guides, diag
}

// sumAmounts fills the monetary KPIs. guides holds the invoice guide of
// each row, manifest the manifest guide set.
func (e *Engine) sumAmounts(result *Result, invoice *dataset.Dataset, column string, guides []GuideID, manifest map[GuideID]struct{}) {
	total := decimal.Zero
	reconciled := decimal.Zero
	extra := decimal.Zero

	for i, guide := range guides {
		amount, ok := AmountFromCell(invoice.Cell(i, column))
		if !ok {
			result.Diagnostics.UnparsedAmountRows++
			continue
		}

		total = total.Add(amount)
		if guide == "" {
			continue
		}
		if _, found := manifest[guide]; found {
			reconciled = reconciled.Add(amount)
		} else {
			extra = extra.Add(amount)
		}
	}

	if n := result.Diagnostics.UnparsedAmountRows; n > 0 {
		e.logger.Debug().Int("rows", n).Str("column", column).Msg("Invoice rows with unparseable amount counted as zero")
	}

	result.TotalAmount = total
	result.ReconciledAmount = reconciled
	result.PendingAmount = total.Sub(reconciled)
	result.ExtraAmount = extra
}

func toSet(guides []GuideID) map[GuideID]struct{} {
	set := make(map[GuideID]struct{}, len(guides))
	for _, g := range guides {
		if g != "" {
			set[g] = struct{}{}
		}
	}
	return set
}

// intersect returns the sorted elements of a that are also in b.
func intersect(a, b map[GuideID]struct{}) []GuideID {
	out := make([]GuideID, 0)
	for g := range a {
		if _, ok := b[g]; ok {
			out = append(out, g)
		}
	}
	slices.Sort(out)
	return out
}

// difference returns the sorted elements of a that are not in b.
func difference(a, b map[GuideID]struct{}) []GuideID {
	out := make([]GuideID, 0)
	for g := range a {
		if _, ok := b[g]; !ok {
			out = append(out, g)
		}
	}
	slices.Sort(out)
	return out
}
