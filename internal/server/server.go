// =============================================================================
// Guide Reconciliation - HTTP Server
// =============================================================================
//
// This module exposes the reconciliation engine over HTTP with gin.
//
// ROUTES:
//   GET  /health                       liveness probe
//   POST /api/v1/reconcile             JSON result
//   POST /api/v1/reconcile/report      PDF report (attachment)
//   POST /api/v1/reconcile/workbook    XLSX workbook (attachment)
//
// The POST routes take a multipart form with two files: "invoice" and
// "manifest". Every request gets a run id, returned in the X-Run-ID header
// and attached to every log line of the request. Request bodies over
// server.max_upload_mb are rejected with 413.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wilo3161/aropostale-logistics-v2/internal/config"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP host for the reconciliation engine.
type Server struct {
	cfg    *config.MainConfig
	logger zerolog.Logger
	router *gin.Engine
}

// New creates a Server and registers its routes. A nil logger selects
// logging.Default().
func New(cfg *config.MainConfig, logger *zerolog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Logger(),
		router: gin.New(),
	}

	s.router.MaxMultipartMemory = cfg.Server.MaxUploadMB << 20
	s.router.Use(s.requestContext(), gin.Recovery())

	h := NewReconcileHandler(cfg)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Guide Reconciliation",
		})
	})

	api := s.router.Group("/api/v1", s.limitUpload())
	{
		rec := api.Group("/reconcile")
		{
			rec.POST("", h.Reconcile)
			rec.POST("/report", h.Report)
			rec.POST("/workbook", h.Workbook)
		}
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting reconciliation server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down reconciliation server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
