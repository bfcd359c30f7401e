package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/learnflow/learnflow-backend/internal/response"
	"github.com/learnflow/learnflow-backend/internal/service"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ReportHandler serves grade reports to staff.
type ReportHandler struct {
	reportService *service.ReportService
	log           zerolog.Logger
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log.With().Str("component", "report_handler").Logger(),
	}
}

// Results godoc
// GET /api/v1/staff/assessments/:id/results
func (h *ReportHandler) Results(c *gin.Context) {
	report, err := h.reportService.Results(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

// Export godoc
// GET /api/v1/staff/assessments/:id/results/export
// Downloads the results as an .xlsx workbook.
func (h *ReportHandler) Export(c *gin.Context) {
	id := c.Param("id")

	// Buffered so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.reportService.ExportXLSX(c.Request.Context(), id, &buf); err != nil {
		fail(c, h.log, err)
		return
	}

	filename := fmt.Sprintf("grades-%s.xlsx", unsafeFilename.ReplaceAllString(id, "_"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
