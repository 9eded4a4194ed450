package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-erp-api/internal/models"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
	"github.com/noah-isme/edu-erp-api/pkg/response"
)

type auditReader interface {
	ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error)
}

// AuditHandler exposes the audit trail of bulk operations.
type AuditHandler struct {
	audit auditReader
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param action query string false "Audit action, e.g. LEAD_BULK_DELETE"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.audit.ListByAction(c.Request.Context(), c.Query("action"), limit)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs"))
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
