package report

import (
	"fmt"

	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/wilo3161/aropostale-logistics-v2/internal/reconcile"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SummarySheet     = "Summary"
	MissingSheet     = "Missing in Manifest"
	ExtraSheet       = "Extra in Invoice"
	DataQualitySheet = "Data Quality"
)

// RenderWorkbook renders result as an XLSX workbook with default options.
func RenderWorkbook(result *reconcile.Result) ([]byte, error) {
	return New(Options{}).RenderWorkbook(result)
}

// RenderWorkbook renders result as an XLSX workbook.
//
// The Summary sheet holds the three-way breakdown, the monetary KPIs and a
// native pie chart over the counts. Missing and extra guides get a sheet
// each so they can be filtered and copied. The result is not modified.
func (r *Renderer) RenderWorkbook(result *reconcile.Result) ([]byte, error) {
	if result == nil {
		return nil, recerrors.NewRenderError("xlsx", "input", fmt.Errorf("result is nil"))
	}

	f := excelize.NewFile()
	defer f.Close()

	w := &workbook{f: f, result: result}

	steps := []struct {
		stage string
		fn    func() error
	}{
		{"properties", func() error {
			return f.SetDocProps(&excelize.DocProperties{
				Title:   r.opts.Title,
				Subject: "Guide reconciliation",
				Creator: r.opts.Author,
			})
		}},
		{"styles", w.styles},
		{"summary", w.summary},
		{"chart", w.chart},
		{"lists", w.lists},
		{"data quality", w.dataQuality},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, recerrors.NewRenderError("xlsx", step.stage, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, recerrors.NewRenderError("xlsx", "output", err)
	}

	r.logger.Debug().Int("bytes", buf.Len()).Msg("Rendered XLSX workbook")
	return buf.Bytes(), nil
}

// workbook is the state of a single workbook render.
type workbook struct {
	f      *excelize.File
	result *reconcile.Result

	headerStyle int
	moneyStyle  int
	ratioStyle  int
}

func (w *workbook) styles() error {
	var err error

	w.headerStyle, err = w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"002D62"}},
	})
	if err != nil {
		return err
	}

	// 4 is the built-in "#,##0.00" format, 10 is "0.00%".
	if w.moneyStyle, err = w.f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return err
	}
	if w.ratioStyle, err = w.f.NewStyle(&excelize.Style{NumFmt: 10}); err != nil {
		return err
	}
	return nil
}

func (w *workbook) summary() error {
	f, res := w.f, w.result

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Category", "Guides", "Amount"},
		{"Matched", res.MatchedCount(), res.ReconciledAmount.InexactFloat64()},
		{"Missing in Manifest", res.MissingCount(), "N/A"},
		{"Extra in Invoice", res.ExtraCount(), res.ExtraAmount.InexactFloat64()},
		{},
		{"KPI", "", "Value"},
		{"Total invoiced", "", res.TotalAmount.InexactFloat64()},
		{"Reconciled", "", res.ReconciledAmount.InexactFloat64()},
		{"Pending", "", res.PendingAmount.InexactFloat64()},
		{"Completeness", "", res.CompletenessRatio().InexactFloat64()},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}

	for _, cells := range [][2]string{{"A1", "C1"}, {"A6", "C6"}} {
		if err := f.SetCellStyle(SummarySheet, cells[0], cells[1], w.headerStyle); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "C2", "C4", w.moneyStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "C7", "C9", w.moneyStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "C10", "C10", w.ratioStyle); err != nil {
		return err
	}

	return f.SetColWidth(SummarySheet, "A", "C", 22)
}

func (w *workbook) chart() error {
	return w.f.AddChart(SummarySheet, "E2", &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("'%s'!$B$1", SummarySheet),
				Categories: fmt.Sprintf("'%s'!$A$2:$A$4", SummarySheet),
				Values:     fmt.Sprintf("'%s'!$B$2:$B$4", SummarySheet),
			},
		},
		Title: []excelize.RichTextRun{{Text: "Guide distribution"}},
	})
}

func (w *workbook) lists() error {
	for _, list := range []struct {
		sheet  string
		guides []reconcile.GuideID
	}{
		{MissingSheet, w.result.MissingInManifest},
		{ExtraSheet, w.result.ExtraInInvoice},
	} {
		if _, err := w.f.NewSheet(list.sheet); err != nil {
			return err
		}
		if err := w.f.SetCellValue(list.sheet, "A1", "Guide"); err != nil {
			return err
		}
		if err := w.f.SetCellStyle(list.sheet, "A1", "A1", w.headerStyle); err != nil {
			return err
		}

		for i, g := range list.guides {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			// Written as text so leading zeros survive.
			if err := w.f.SetCellStr(list.sheet, cell, string(g)); err != nil {
				return err
			}
		}

		if err := w.f.SetColWidth(list.sheet, "A", "A", 24); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) dataQuality() error {
	f, diag := w.f, w.result.Diagnostics

	if _, err := f.NewSheet(DataQualitySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Dataset", "Source file", "Rows", "Distinct guides", "Rows without guide"},
		{"Invoice", diag.Invoice.SourceFile, diag.Invoice.Rows, diag.Invoice.DistinctGuides, diag.Invoice.RowsWithoutGuide},
		{"Manifest", diag.Manifest.SourceFile, diag.Manifest.Rows, diag.Manifest.DistinctGuides, diag.Manifest.RowsWithoutGuide},
		{},
		{"Amount column", w.result.AmountColumn},
		{"Unparsed amount rows", diag.UnparsedAmountRows},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DataQualitySheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(DataQualitySheet, "A1", "E1", w.headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(DataQualitySheet, "A", "E", 20)
}
