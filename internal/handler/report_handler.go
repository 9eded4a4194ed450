package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-erp-api/internal/service"
	"github.com/noah-isme/edu-erp-api/pkg/response"
)

type reportRenderer interface {
	Render(ctx context.Context, report, format string) (*service.ReportFile, error)
}

// ReportHandler exposes departmental report downloads.
type ReportHandler struct {
	reports reportRenderer
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportRenderer) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Download godoc
// @Summary Download a pipeline report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param report path string true "funnel or counselors"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /reports/{report} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	file, err := h.reports.Render(c.Request.Context(), c.Param("report"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
