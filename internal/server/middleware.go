package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wilo3161/aropostale-logistics-v2/internal/logging"
)

// RunIDHeader carries the per-request run id.
const RunIDHeader = "X-Run-ID"

const runIDKey = "run_id"

// requestContext assigns a run id, stores a request-scoped logger in the
// request context and logs the request once it completes.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		runID := uuid.New().String()
		c.Set(runIDKey, runID)
		c.Header(RunIDHeader, runID)

		logger := s.logger.With().Str("run_id", runID).Logger()
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), &logger))

		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Error()
		} else if c.Writer.Status() >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	}
}

func runID(c *gin.Context) string {
	return c.GetString(runIDKey)
}

// limitUpload caps the request body at server.max_upload_mb. Requests that
// declare a larger body are rejected before it is read.
func (s *Server) limitUpload() gin.HandlerFunc {
	limit := s.cfg.Server.MaxUploadMB << 20

	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			sendTooLarge(c, limit)
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
