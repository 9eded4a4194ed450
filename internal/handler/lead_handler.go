package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/middleware"
	"github.com/noah-isme/edu-erp-api/internal/models"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
	"github.com/noah-isme/edu-erp-api/pkg/response"
)

type leadUseCases interface {
	CreateLead(ctx context.Context, req dto.CreateLeadRequest) (*dto.MutationResult, error)
	UpdateLead(ctx context.Context, req dto.UpdateLeadRequest) (*dto.MutationResult, error)
	AddTask(ctx context.Context, req dto.AddTaskRequest) (*dto.MutationResult, error)
	AddActivity(ctx context.Context, req dto.AddActivityRequest) (*dto.MutationResult, error)
	BulkUpdate(ctx context.Context, req dto.BulkUpdateRequest) (*dto.MutationResult, error)
	BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (*dto.MutationResult, error)
	DistributeLeads(ctx context.Context, req dto.DistributeLeadsRequest) (*dto.MutationResult, error)
	Get(ctx context.Context, id string) (*models.Lead, error)
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, req dto.UpdateTaskStatusRequest) (*dto.MutationResult, error)
}

// LeadHandler exposes lead endpoints.
type LeadHandler struct {
	leads leadUseCases
}

// NewLeadHandler constructs LeadHandler.
func NewLeadHandler(leads leadUseCases) *LeadHandler {
	return &LeadHandler{leads: leads}
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param stage query string false "Filter by stage"
// @Param assignedUserId query string false "Filter by owner"
// @Param source query string false "Source contains"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /leads [get]
func (h *LeadHandler) List(c *gin.Context) {
	filter := models.LeadFilter{
		Stage:          models.LeadStage(c.Query("stage")),
		AssignedUserID: c.Query("assignedUserId"),
		Source:         c.Query("source"),
		Search:         strings.TrimSpace(c.Query("search")),
	}
	if filter.Stage != "" && !filter.Stage.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown stage"))
		return
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	leads, pagination, err := h.leads.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leads, pagination)
}

// Get godoc
// @Summary Get lead detail
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [get]
func (h *LeadHandler) Get(c *gin.Context) {
	lead, err := h.leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lead, nil)
}

// Create godoc
// @Summary Create lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body dto.CreateLeadRequest true "Lead payload"
// @Success 201 {object} response.Envelope
// @Router /leads [post]
func (h *LeadHandler) Create(c *gin.Context) {
	var req dto.CreateLeadRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.leads.CreateLead(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Update godoc
// @Summary Update lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body dto.UpdateLeadRequest true "Lead payload"
// @Success 200 {object} response.Envelope
// @Router /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) {
	var req dto.UpdateLeadRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = c.Param("id")
	res, err := h.leads.UpdateLead(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// AddTask godoc
// @Summary Schedule a lead task
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body dto.AddTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /leads/{id}/tasks [post]
func (h *LeadHandler) AddTask(c *gin.Context) {
	var req dto.AddTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	req.LeadID = c.Param("id")
	res, err := h.leads.AddTask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// AddActivity godoc
// @Summary Log a lead activity
// @Description Optional courseInterest and stage are applied to the lead with the activity.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param payload body dto.AddActivityRequest true "Activity payload"
// @Success 201 {object} response.Envelope
// @Router /leads/{id}/activities [post]
func (h *LeadHandler) AddActivity(c *gin.Context) {
	var req dto.AddActivityRequest
	if !bindJSON(c, &req) {
		return
	}
	req.LeadID = c.Param("id")
	if req.UserID == "" {
		req.UserID = middleware.ActorID(c)
	}
	res, err := h.leads.AddActivity(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// BulkUpdate godoc
// @Summary Move, assign or distribute many leads
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpdateRequest true "Bulk update payload"
// @Success 200 {object} response.Envelope
// @Router /leads/bulk-update [post]
func (h *LeadHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.leads.BulkUpdate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AuditDetail(c, "leadIds", req.LeadIDs)
	middleware.AuditDetail(c, "count", res.Count)
	response.JSON(c, http.StatusOK, res, nil)
}

// BulkDelete godoc
// @Summary Delete many leads
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeleteRequest true "Lead ids"
// @Success 200 {object} response.Envelope
// @Router /leads/bulk-delete [post]
func (h *LeadHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.leads.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AuditDetail(c, "leadIds", req.LeadIDs)
	middleware.AuditDetail(c, "count", res.Count)
	response.JSON(c, http.StatusOK, res, nil)
}

// Distribute godoc
// @Summary Distribute leads round-robin across counselors
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body dto.DistributeLeadsRequest true "Distribution payload"
// @Success 200 {object} response.Envelope
// @Router /leads/distribute [post]
func (h *LeadHandler) Distribute(c *gin.Context) {
	var req dto.DistributeLeadsRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.leads.DistributeLeads(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.AuditDetail(c, "counselorIds", req.CounselorIDs)
	middleware.AuditDetail(c, "count", res.Count)
	response.JSON(c, http.StatusOK, res, nil)
}

// ListTasks godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param leadId query string false "Filter by lead"
// @Param assignedUserId query string false "Filter by assignee"
// @Param status query string false "Filter by status"
// @Param type query string false "Filter by type"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *LeadHandler) ListTasks(c *gin.Context) {
	tasks, err := h.leads.ListTasks(c.Request.Context(), models.TaskFilter{
		LeadID:         c.Query("leadId"),
		AssignedUserID: c.Query("assignedUserId"),
		Status:         models.TaskStatus(c.Query("status")),
		Type:           models.TaskType(c.Query("type")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil, map[string]interface{}{"count": len(tasks)})
}

// UpdateTaskStatus godoc
// @Summary Set a task status
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.UpdateTaskStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/status [patch]
func (h *LeadHandler) UpdateTaskStatus(c *gin.Context) {
	var req dto.UpdateTaskStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.TaskID = c.Param("id")
	res, err := h.leads.UpdateTaskStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
