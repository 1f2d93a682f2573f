// =============================================================================
// Guide Reconciliation - PDF Report Generator
// =============================================================================
//
// This module renders a reconciliation Result into a paginated A4 PDF.
//
// DOCUMENT LAYOUT:
//   Page 1
//     - Title block (brand band, title, subtitle, generation time, resolved
//       columns)
//     - Summary table: Matched / Missing in Manifest / Extra in Invoice with
//       guide count and amount. Missing guides were never invoiced, so their
//       amount is "N/A".
//     - KPI block: total, reconciled, pending, completeness
//     - Proportion charts: bar chart and pie chart over the three counts.
//       When every count is zero an empty-state frame is drawn instead.
//     - Data quality: row counts and rows dropped during normalization
//   Following pages
//     - Drill-down lists of missing and extra guides, laid out in columns.
//       Long lists continue on new pages.
//   Every page carries a "Page N of M" footer.
//
// VALIDATION:
//   The produced bytes are parsed back with pdfcpu before they are returned,
//   so a caller never receives a document that a reader would reject.
//
// The Result is only read. A new fpdf document is built for every call, so a
// Renderer can be shared between goroutines.
//
// =============================================================================

package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
	"github.com/wilo3161/aropostale-logistics-v2/internal/reconcile"
)

func init() {
	// pdfcpu otherwise creates a config directory under the user's home.
	api.DisableConfigDir()
}

// =============================================================================
// PAGE GEOMETRY AND COLORS
// =============================================================================

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginTop    = 20.0
	marginRight  = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight

	lineHeight = 6.0
)

type rgb struct{ r, g, b int }

var (
	brandColor   = rgb{0, 45, 98}
	matchedColor = rgb{46, 125, 50}
	missingColor = rgb{198, 40, 40}
	extraColor   = rgb{239, 108, 0}
	mutedColor   = rgb{120, 120, 120}
	stripeColor  = rgb{240, 243, 248}
)

// category is one row of the summary table and one slice of the charts.
type category struct {
	label  string
	count  int
	amount string
	color  rgb
}

// =============================================================================
// RENDERER
// =============================================================================

// Options configures a Renderer. Zero values select the defaults.
type Options struct {
	// Title is printed in the brand band on page 1.
	// Default: "Guide Reconciliation Report"
	Title string

	// Subtitle is printed under the title.
	Subtitle string

	// Author is stored in the document metadata.
	Author string

	// ListColumns is the number of guide columns on drill-down pages.
	// Default: 4
	ListColumns int

	// DisableCompression writes uncompressed page streams.
	DisableCompression bool

	// Now returns the generation time printed in the title block.
	// Default: time.Now
	Now func() time.Time

	// Logger receives render diagnostics.
	// Default: logging.Default()
	Logger *zerolog.Logger
}

// OptionsFromConfig builds renderer options from the report settings.
func OptionsFromConfig(cfg config.ReportSettings, logger *zerolog.Logger) Options {
	return Options{
		Title:       cfg.Title,
		Subtitle:    cfg.Subtitle,
		Author:      cfg.Author,
		ListColumns: cfg.ListColumns,
		Logger:      logger,
	}
}

// Renderer produces PDF and XLSX reports from reconciliation results.
type Renderer struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.Title == "" {
		opts.Title = "Guide Reconciliation Report"
	}
	if opts.ListColumns < 1 {
		opts.ListColumns = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Renderer{
		opts:   opts,
		logger: logger.With().Str("component", "report").Logger(),
	}
}

// Render renders result as a PDF with default options.
func Render(result *reconcile.Result) ([]byte, error) {
	return New(Options{}).Render(result)
}

// Render renders result as a PDF document.
//
// PARAMETERS:
//   - result: The reconciliation result. It is not modified.
//
// RETURNS:
//   - The PDF bytes.
//   - A *errors.RenderError if the document cannot be laid out, written or
//     validated.
func (r *Renderer) Render(result *reconcile.Result) ([]byte, error) {
	if result == nil {
		return nil, recerrors.NewRenderError("pdf", "input", fmt.Errorf("result is nil"))
	}

	doc := r.newDocument(result)

	doc.titleBlock()
	doc.summaryTable()
	doc.kpiBlock()
	doc.charts()
	doc.dataQuality()
	doc.guideList("Missing in Manifest", "Guides on the manifest that were never invoiced.", result.MissingInManifest, missingColor)
	doc.guideList("Extra in Invoice", "Invoiced guides that are not on the manifest.", result.ExtraInInvoice, extraColor)

	if doc.pdf.Err() {
		return nil, recerrors.NewRenderError("pdf", "layout", doc.pdf.Error())
	}

	var buf bytes.Buffer
	if err := doc.pdf.Output(&buf); err != nil {
		return nil, recerrors.NewRenderError("pdf", "output", err)
	}

	if err := Validate(buf.Bytes()); err != nil {
		return nil, recerrors.NewRenderError("pdf", "validate", err)
	}

	r.logger.Debug().
		Int("pages", doc.pdf.PageCount()).
		Int("bytes", buf.Len()).
		Msg("Rendered PDF report")

	return buf.Bytes(), nil
}

// Validate checks that doc is a well-formed PDF.
func Validate(doc []byte) error {
	if err := api.Validate(bytes.NewReader(doc), model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in a PDF document.
func PageCount(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// =============================================================================
// DOCUMENT SECTIONS
// =============================================================================

// document is the state of a single render.
type document struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	opts   Options
	result *reconcile.Result
}

func (r *Renderer) newDocument(result *reconcile.Result) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!r.opts.DisableCompression)
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCreationDate(r.opts.Now())
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(r.opts.Title, true)
	pdf.SetSubject("Guide reconciliation", true)
	pdf.SetCreator("recon", true)
	if r.opts.Author != "" {
		pdf.SetAuthor(r.opts.Author, true)
	}

	d := &document{pdf: pdf, tr: tr, opts: r.opts, result: result}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetFont("Helvetica", "B", 9)
		d.textColor(brandColor)
		pdf.CellFormat(contentWidth, 6, tr(r.opts.Title), "B", 1, "L", false, 0, "")
		pdf.Ln(4)
		d.textColor(rgb{})
	})

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		d.textColor(mutedColor)
		pdf.CellFormat(contentWidth, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		d.textColor(rgb{})
	})

	pdf.AddPage()
	return d
}

// titleBlock draws the brand band and the run details.
func (d *document) titleBlock() {
	pdf := d.pdf

	d.fillColor(brandColor)
	pdf.Rect(0, 0, pageWidth, 35, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(0, 8)
	pdf.CellFormat(pageWidth, 10, d.tr(d.opts.Title), "", 1, "C", false, 0, "")
	if d.opts.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 12)
		pdf.SetXY(0, 20)
		pdf.CellFormat(pageWidth, 8, d.tr(d.opts.Subtitle), "", 1, "C", false, 0, "")
	}

	d.textColor(rgb{})
	pdf.SetXY(marginLeft, 42)
	pdf.SetFont("Helvetica", "", 9)

	amountColumn := d.result.AmountColumn
	if amountColumn == "" {
		amountColumn = "not found"
	}

	d.keyValue("Generated", d.opts.Now().Format("2006-01-02 15:04:05 MST"))
	d.keyValue("Invoice guide column", orDash(d.result.InvoiceGuideColumn))
	d.keyValue("Manifest guide column", orDash(d.result.ManifestGuideColumn))
	d.keyValue("Invoice amount column", amountColumn)
	pdf.Ln(4)
}

// summaryTable draws the three-way breakdown.
func (d *document) summaryTable() {
	pdf := d.pdf
	d.sectionHeading("Summary")

	widths := []float64{90, 40, 50}
	headers := []string{"Category", "Guides", "Amount"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(255, 255, 255)
	d.fillColor(brandColor)
	for i, h := range headers {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, h, "", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	d.textColor(rgb{})
	pdf.SetFont("Helvetica", "", 10)
	for i, c := range d.categories() {
		fill := i%2 == 1
		x, y := pdf.GetX(), pdf.GetY()
		d.fillColor(c.color)
		pdf.Rect(x, y+2.5, 3, 3, "F")
		d.fillColor(stripeColor)

		pdf.CellFormat(widths[0], 8, "     "+c.label, "B", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", c.count), "B", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[2], 8, c.amount, "B", 1, "R", fill, 0, "")
	}
	pdf.Ln(4)
}

// kpiBlock prints the monetary totals.
func (d *document) kpiBlock() {
	pdf := d.pdf
	res := d.result

	d.sectionHeading("Monetary KPIs")

	ratio := res.CompletenessRatio().Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"

	kpis := []struct{ label, value string }{
		{"Total invoiced", FormatAmount(res.TotalAmount)},
		{"Reconciled", FormatAmount(res.ReconciledAmount)},
		{"Pending", FormatAmount(res.PendingAmount)},
		{"Completeness", ratio},
	}

	boxWidth := contentWidth / float64(len(kpis))
	y := pdf.GetY()
	for i, k := range kpis {
		x := marginLeft + float64(i)*boxWidth
		d.fillColor(stripeColor)
		pdf.Rect(x+1, y, boxWidth-2, 18, "F")

		pdf.SetXY(x+1, y+2)
		pdf.SetFont("Helvetica", "", 8)
		d.textColor(mutedColor)
		pdf.CellFormat(boxWidth-2, 5, k.label, "", 2, "C", false, 0, "")

		pdf.SetFont("Helvetica", "B", 12)
		d.textColor(brandColor)
		pdf.CellFormat(boxWidth-2, 8, k.value, "", 0, "C", false, 0, "")
	}
	d.textColor(rgb{})
	pdf.SetXY(marginLeft, y+22)

	if !res.Diagnostics.AmountColumnFound {
		pdf.SetFont("Helvetica", "I", 9)
		d.textColor(missingColor)
		pdf.MultiCell(contentWidth, 5, "No amount column was found in the invoice data. Monetary KPIs are reported as zero.", "", "L", false)
		d.textColor(rgb{})
		pdf.Ln(2)
	}
}

// charts draws the bar and pie charts side by side.
func (d *document) charts() {
	const chartHeight = 70.0

	pdf := d.pdf
	d.ensureSpace(chartHeight + 14)
	d.sectionHeading("Guide distribution")

	top := pdf.GetY()
	cats := d.categories()

	total := 0
	for _, c := range cats {
		total += c.count
	}

	if total == 0 {
		d.emptyChart(marginLeft, top, 85, chartHeight-10)
		d.emptyPie(marginLeft+130, top+chartHeight/2-5, 25)
	} else {
		d.barChart(cats, marginLeft, top, 85, chartHeight-10)
		d.pieChart(cats, total, marginLeft+130, top+chartHeight/2-5, 25)
	}

	pdf.SetXY(marginLeft, top+chartHeight)
}

// barChart draws one bar per category, scaled to the largest count.
func (d *document) barChart(cats []category, x, y, w, h float64) {
	pdf := d.pdf

	maxCount := 0
	for _, c := range cats {
		maxCount = max(maxCount, c.count)
	}

	plotHeight := h - 12
	baseline := y + 6 + plotHeight
	slot := w / float64(len(cats))
	barWidth := slot * 0.6

	d.drawColor(mutedColor)
	pdf.SetLineWidth(0.2)
	pdf.Line(x, baseline, x+w, baseline)

	for i, c := range cats {
		barHeight := plotHeight * float64(c.count) / float64(maxCount)
		bx := x + float64(i)*slot + (slot-barWidth)/2

		d.fillColor(c.color)
		if barHeight > 0 {
			pdf.Rect(bx, baseline-barHeight, barWidth, barHeight, "F")
		}

		pdf.SetFont("Helvetica", "B", 8)
		d.textColor(rgb{})
		pdf.SetXY(bx-2, baseline-barHeight-5)
		pdf.CellFormat(barWidth+4, 4, fmt.Sprintf("%d", c.count), "", 0, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 7)
		pdf.SetXY(x+float64(i)*slot, baseline+1)
		pdf.CellFormat(slot, 4, c.label, "", 0, "C", false, 0, "")
	}
}

// pieChart draws the slices as filled polygons and a legend to the right.
func (d *document) pieChart(cats []category, total int, cx, cy, radius float64) {
	pdf := d.pdf

	start := -90.0
	for _, c := range cats {
		if c.count == 0 {
			continue
		}
		sweep := 360 * float64(c.count) / float64(total)
		d.fillColor(c.color)
		if c.count == total {
			pdf.Circle(cx, cy, radius, "F")
		} else {
			pdf.Polygon(slicePoints(cx, cy, radius, start, sweep), "F")
		}
		start += sweep
	}

	d.legend(cats, total, cx+radius+5, cy-9)
}

// slicePoints approximates a pie slice with a polygon. Angles are in
// degrees, clockwise from the positive x axis.
func slicePoints(cx, cy, radius, start, sweep float64) []fpdf.PointType {
	steps := int(math.Ceil(sweep/5)) + 1
	points := make([]fpdf.PointType, 0, steps+2)
	points = append(points, fpdf.PointType{X: cx, Y: cy})

	for i := 0; i <= steps; i++ {
		angle := (start + sweep*float64(i)/float64(steps)) * math.Pi / 180
		points = append(points, fpdf.PointType{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}

	return points
}

func (d *document) legend(cats []category, total int, x, y float64) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "", 8)
	d.textColor(rgb{})

	for i, c := range cats {
		ly := y + float64(i)*6
		d.fillColor(c.color)
		pdf.Rect(x, ly+1, 3, 3, "F")

		share := 0.0
		if total > 0 {
			share = 100 * float64(c.count) / float64(total)
		}
		pdf.SetXY(x+4, ly)
		pdf.CellFormat(30, 5, fmt.Sprintf("%s %.1f%%", c.label, share), "", 0, "L", false, 0, "")
	}
}

// emptyChart draws a dashed frame with a placeholder message.
func (d *document) emptyChart(x, y, w, h float64) {
	pdf := d.pdf

	d.drawColor(mutedColor)
	pdf.SetLineWidth(0.3)
	pdf.SetDashPattern([]float64{2, 2}, 0)
	pdf.Rect(x, y+6, w, h-6, "D")
	pdf.SetDashPattern([]float64{}, 0)

	pdf.SetFont("Helvetica", "I", 9)
	d.textColor(mutedColor)
	pdf.SetXY(x, y+h/2)
	pdf.CellFormat(w, 6, "No guides to chart", "", 0, "C", false, 0, "")
	d.textColor(rgb{})
}

func (d *document) emptyPie(cx, cy, radius float64) {
	pdf := d.pdf

	d.drawColor(mutedColor)
	pdf.SetLineWidth(0.3)
	pdf.Circle(cx, cy, radius, "D")

	pdf.SetFont("Helvetica", "I", 9)
	d.textColor(mutedColor)
	pdf.SetXY(cx-radius, cy-3)
	pdf.CellFormat(2*radius, 6, "0 guides", "", 0, "C", false, 0, "")

	d.legend(d.categories(), 0, cx+radius+5, cy-9)
}

// dataQuality lists the rows that did not contribute to the result.
func (d *document) dataQuality() {
	pdf := d.pdf
	diag := d.result.Diagnostics

	d.ensureSpace(50)
	d.sectionHeading("Data quality")

	pdf.SetFont("Helvetica", "", 9)
	for _, ds := range []struct {
		name string
		diag reconcile.DatasetDiagnostics
	}{
		{"Invoice", diag.Invoice},
		{"Manifest", diag.Manifest},
	} {
		value := fmt.Sprintf("%d rows, %d distinct guides, %d rows without a guide",
			ds.diag.Rows, ds.diag.DistinctGuides, ds.diag.RowsWithoutGuide)
		if ds.diag.SourceFile != "" {
			value += " [" + ds.diag.SourceFile + "]"
		}
		d.keyValue(ds.name, value)
	}

	if diag.AmountColumnFound {
		d.keyValue("Unparsed amounts", fmt.Sprintf("%d invoice rows counted as zero", diag.UnparsedAmountRows))
	} else {
		d.keyValue("Unparsed amounts", "amount column not found")
	}
}

// guideList starts a new page and lists guides in columns. Lists that do
// not fit continue on following pages under a repeated heading.
func (d *document) guideList(title, description string, guides []reconcile.GuideID, color rgb) {
	pdf := d.pdf
	pdf.AddPage()

	heading := fmt.Sprintf("%s (%d)", title, len(guides))
	d.listHeading(heading, color)

	pdf.SetFont("Helvetica", "I", 9)
	d.textColor(mutedColor)
	pdf.CellFormat(contentWidth, lineHeight, description, "", 1, "L", false, 0, "")
	d.textColor(rgb{})
	pdf.Ln(2)

	if len(guides) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentWidth, lineHeight, "None.", "", 1, "L", false, 0, "")
		return
	}

	cols := d.opts.ListColumns
	colWidth := contentWidth / float64(cols)

	pdf.SetFont("Courier", "", 9)
	for i, g := range guides {
		if i%cols == 0 {
			if pdf.GetY()+lineHeight > pageHeight-marginBottom {
				pdf.AddPage()
				d.listHeading(heading+" (continued)", color)
				pdf.SetFont("Courier", "", 9)
			}
			fill := (i/cols)%2 == 1
			d.fillColor(stripeColor)
			pdf.SetX(marginLeft)
			if fill {
				pdf.Rect(marginLeft, pdf.GetY(), contentWidth, lineHeight, "F")
			}
		}

		ln := 0
		if i%cols == cols-1 || i == len(guides)-1 {
			ln = 1
		}
		pdf.CellFormat(colWidth, lineHeight, fmt.Sprintf("%4d. %s", i+1, g), "", ln, "L", false, 0, "")
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// categories returns the summary rows in display order.
func (d *document) categories() []category {
	res := d.result
	return []category{
		{"Matched", res.MatchedCount(), FormatAmount(res.ReconciledAmount), matchedColor},
		{"Missing in Manifest", res.MissingCount(), "N/A", missingColor},
		{"Extra in Invoice", res.ExtraCount(), FormatAmount(res.ExtraAmount), extraColor},
	}
}

func (d *document) sectionHeading(text string) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", 13)
	d.textColor(brandColor)
	pdf.CellFormat(contentWidth, 8, d.tr(text), "", 1, "L", false, 0, "")
	d.drawColor(brandColor)
	pdf.SetLineWidth(0.4)
	pdf.Line(marginLeft, pdf.GetY(), marginLeft+contentWidth, pdf.GetY())
	pdf.Ln(3)
	d.textColor(rgb{})
}

func (d *document) listHeading(text string, color rgb) {
	pdf := d.pdf
	d.fillColor(color)
	pdf.Rect(marginLeft, pdf.GetY()+1.5, 3, 5, "F")
	pdf.SetX(marginLeft + 5)
	pdf.SetFont("Helvetica", "B", 13)
	d.textColor(brandColor)
	pdf.CellFormat(contentWidth-5, 8, d.tr(text), "", 1, "L", false, 0, "")
	d.textColor(rgb{})
}

func (d *document) keyValue(key, value string) {
	pdf := d.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(50, 5, d.tr(key+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentWidth-50, 5, d.tr(value), "", 1, "L", false, 0, "")
}

// ensureSpace starts a new page when less than h millimeters remain.
func (d *document) ensureSpace(h float64) {
	if d.pdf.GetY()+h > pageHeight-marginBottom {
		d.pdf.AddPage()
	}
}

func (d *document) textColor(c rgb) { d.pdf.SetTextColor(c.r, c.g, c.b) }
func (d *document) fillColor(c rgb) { d.pdf.SetFillColor(c.r, c.g, c.b) }
func (d *document) drawColor(c rgb) { d.pdf.SetDrawColor(c.r, c.g, c.b) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
