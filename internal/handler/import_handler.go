package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-erp-api/internal/middleware"
	"github.com/noah-isme/edu-erp-api/internal/models"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
	"github.com/noah-isme/edu-erp-api/pkg/response"
)

type importUseCases interface {
	Enqueue(ctx context.Context, filename string, r io.Reader, requestedBy string) (*models.ImportJob, error)
	Status(ctx context.Context, id string) (*models.ImportJob, error)
}

// ImportHandler exposes bulk lead uploads.
type ImportHandler struct {
	imports importUseCases
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports importUseCases) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Upload godoc
// @Summary Upload a CSV of leads
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 202 {object} response.Envelope
// @Router /leads/imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		fields := appErrors.FieldErrors{}
		fields.Add("file", "is required")
		response.Error(c, appErrors.Validation("invalid upload", fields))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	job, err := h.imports.Enqueue(c.Request.Context(), header.Filename, file, middleware.ActorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AuditDetail(c, "importId", job.ID)
	response.Accepted(c, job)
}

// Status godoc
// @Summary Import job status
// @Tags Imports
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} response.Envelope
// @Router /leads/imports/{id} [get]
func (h *ImportHandler) Status(c *gin.Context) {
	job, err := h.imports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
