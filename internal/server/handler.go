package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	"github.com/wilo3161/aropostale-logistics-v2/internal/dataset"
	recerrors "github.com/wilo3161/aropostale-logistics-v2/internal/errors"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
	"github.com/wilo3161/aropostale-logistics-v2/internal/reconcile"
	"github.com/wilo3161/aropostale-logistics-v2/internal/report"
	"github.com/wilo3161/aropostale-logistics-v2/pkg/utils"
)

// Multipart form fields.
const (
	InvoiceField  = "invoice"
	ManifestField = "manifest"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ReconcileResponse is the body of POST /api/v1/reconcile.
type ReconcileResponse struct {
	RunID             string            `json:"run_id"`
	MatchedCount      int               `json:"matched_count"`
	MissingCount      int               `json:"missing_in_manifest_count"`
	ExtraCount        int               `json:"extra_in_invoice_count"`
	CompletenessRatio string            `json:"completeness_ratio"`
	Result            *reconcile.Result `json:"result"`
}

// ReconcileHandler serves the reconciliation endpoints.
type ReconcileHandler struct {
	cfg *config.MainConfig
	now func() time.Time
}

// NewReconcileHandler creates a ReconcileHandler.
func NewReconcileHandler(cfg *config.MainConfig) *ReconcileHandler {
	return &ReconcileHandler{cfg: cfg, now: time.Now}
}

// Reconcile handles POST /api/v1/reconcile.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	result, _, ok := h.run(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ReconcileResponse{
		RunID:             runID(c),
		MatchedCount:      result.MatchedCount(),
		MissingCount:      result.MissingCount(),
		ExtraCount:        result.ExtraCount(),
		CompletenessRatio: result.CompletenessRatio().StringFixed(4),
		Result:            result,
	})
}

// Report handles POST /api/v1/reconcile/report.
func (h *ReconcileHandler) Report(c *gin.Context) {
	result, original, ok := h.run(c)
	if !ok {
		return
	}

	doc, err := h.renderer(c).Render(result)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.attach(c, "application/pdf", ".pdf", original, doc)
}

// Workbook handles POST /api/v1/reconcile/workbook.
func (h *ReconcileHandler) Workbook(c *gin.Context) {
	result, original, ok := h.run(c)
	if !ok {
		return
	}

	data, err := h.renderer(c).RenderWorkbook(result)
	if err != nil {
		h.sendError(c, err)
		return
	}

	h.attach(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx", original, data)
}

// run reads both uploads and reconciles them. It also returns the invoice
// file name without extension. On failure the error response has already
// been written.
func (h *ReconcileHandler) run(c *gin.Context) (*reconcile.Result, string, bool) {
	logger := logging.FromContext(c.Request.Context())

	invoice, err := c.FormFile(InvoiceField)
	if err != nil {
		h.sendUploadError(c, InvoiceField, err)
		return nil, "", false
	}
	manifest, err := c.FormFile(ManifestField)
	if err != nil {
		h.sendUploadError(c, ManifestField, err)
		return nil, "", false
	}

	logger.Info().
		Str("invoice", invoice.Filename).
		Int64("invoice_size", invoice.Size).
		Str("manifest", manifest.Filename).
		Int64("manifest_size", manifest.Size).
		Msg("Received reconciliation request")

	invSrc, invClose, err := openUpload(invoice)
	if err != nil {
		h.sendError(c, recerrors.NewDatasetLoadError(reconcile.InvoiceDataset, invoice.Filename, err))
		return nil, "", false
	}
	defer invClose()

	manSrc, manClose, err := openUpload(manifest)
	if err != nil {
		h.sendError(c, recerrors.NewDatasetLoadError(reconcile.ManifestDataset, manifest.Filename, err))
		return nil, "", false
	}
	defer manClose()

	engine := reconcile.New(reconcile.OptionsFromConfig(h.cfg.Reconciliation, logger))
	result, err := engine.ReconcileFiles(invSrc, manSrc, h.cfg.CSVSettings)
	if err != nil {
		h.sendError(c, err)
		return nil, "", false
	}

	original := strings.TrimSuffix(invoice.Filename, filepath.Ext(invoice.Filename))
	return result, original, true
}

func (h *ReconcileHandler) renderer(c *gin.Context) *report.Renderer {
	opts := report.OptionsFromConfig(h.cfg.Report, logging.FromContext(c.Request.Context()))
	opts.Now = h.now
	return report.New(opts)
}

// attach sends data as a download named after report_file_format.
func (h *ReconcileHandler) attach(c *gin.Context, contentType, ext, original string, data []byte) {
	name := utils.GenerateOutputFileName(h.cfg.ReportFileFormat, ext, map[string]string{
		"uuid":     runID(c),
		"original": original,
	})
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(name)))
	c.Data(http.StatusOK, contentType, data)
}

func openUpload(fh *multipart.FileHeader) (dataset.Source, func() error, error) {
	f, err := fh.Open()
	if err != nil {
		return dataset.Source{}, nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return dataset.Source{Filename: fh.Filename, Reader: f}, f.Close, nil
}

// sendError maps err to a status code and writes a structured error
// response.
func (h *ReconcileHandler) sendError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "RECONCILIATION_FAILED"

	switch {
	case recerrors.IsDatasetLoad(err):
		status, code = http.StatusUnprocessableEntity, "DATASET_LOAD_FAILED"
	case recerrors.IsColumnNotFound(err):
		status, code = http.StatusUnprocessableEntity, "COLUMN_NOT_FOUND"
	case recerrors.IsRender(err):
		status, code = http.StatusInternalServerError, "RENDER_FAILED"
	}

	logging.FromContext(c.Request.Context()).Error().Err(err).Str("code", code).Msg("Reconciliation request failed")

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    status,
	})
}

// sendUploadError reports a multipart field that could not be read. A body
// over the upload limit is 413; anything else means the field is missing.
func (h *ReconcileHandler) sendUploadError(c *gin.Context, field string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		sendTooLarge(c, tooLarge.Limit)
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "MISSING_UPLOAD",
		Message: fmt.Sprintf("multipart field %q is required", field),
		Code:    http.StatusBadRequest,
	})
}

func sendTooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error:   "UPLOAD_TOO_LARGE",
		Message: fmt.Sprintf("request body exceeds the %d MB upload limit", limit>>20),
		Code:    http.StatusRequestEntityTooLarge,
	})
}
