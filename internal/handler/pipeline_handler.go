package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/pipeline"
	"github.com/noah-isme/edu-erp-api/internal/service"
	"github.com/noah-isme/edu-erp-api/pkg/response"
)

type pipelineViews interface {
	Board(ctx context.Context, mode pipeline.SortMode) (*dto.BoardResponse, error)
	Funnel(ctx context.Context) (*dto.FunnelResponse, error)
	MissedFollowUp(ctx context.Context) (*dto.MissedFollowUpResponse, error)
}

// PipelineHandler exposes the derived pipeline views.
type PipelineHandler struct {
	views pipelineViews
}

// NewPipelineHandler constructs PipelineHandler.
func NewPipelineHandler(views pipelineViews) *PipelineHandler {
	return &PipelineHandler{views: views}
}

// Board godoc
// @Summary Kanban board grouped by stage
// @Tags Pipeline
// @Produce json
// @Param sort query string false "created or priority"
// @Success 200 {object} response.Envelope
// @Router /pipeline/board [get]
func (h *PipelineHandler) Board(c *gin.Context) {
	mode, err := service.ParseSortMode(c.Query("sort"))
	if err != nil {
		response.Error(c, err)
		return
	}
	board, err := h.views.Board(c.Request.Context(), mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Funnel godoc
// @Summary Stage funnel
// @Tags Pipeline
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pipeline/funnel [get]
func (h *PipelineHandler) Funnel(c *gin.Context) {
	funnel, err := h.views.Funnel(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, funnel, nil)
}

// MissedFollowUp godoc
// @Summary First lead with a follow-up due today and no activity today
// @Tags Pipeline
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pipeline/missed-follow-up [get]
func (h *PipelineHandler) MissedFollowUp(c *gin.Context) {
	alert, err := h.views.MissedFollowUp(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert, nil)
}
