package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/middleware"
	"github.com/noah-isme/edu-erp-api/internal/models"
)

// Handlers groups the HTTP handlers mounted under the API prefix. Imports may be nil when
// bulk upload is disabled.
type Handlers struct {
	Leads     *LeadHandler
	Pipeline  *PipelineHandler
	Reports   *ReportHandler
	Directory *DirectoryHandler
	Imports   *ImportHandler
	Audit     *AuditHandler
}

// RegisterRoutes mounts every API route on the group. Bulk mutations are audited through sink.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, sink middleware.AuditSink, logger *zap.Logger) {
	audit := func(action string) gin.HandlerFunc {
		return middleware.Audit(sink, action, models.AuditResourceLead, logger)
	}

	leads := api.Group("/leads")
	leads.GET("", h.Leads.List)
	leads.POST("", h.Leads.Create)
	leads.POST("/bulk-update", audit(models.AuditActionLeadBulkUpdate), h.Leads.BulkUpdate)
	leads.POST("/bulk-delete", audit(models.AuditActionLeadBulkDelete), h.Leads.BulkDelete)
	leads.POST("/distribute", audit(models.AuditActionLeadDistribute), h.Leads.Distribute)
	if h.Imports != nil {
		leads.POST("/imports", audit(models.AuditActionLeadImport), h.Imports.Upload)
		leads.GET("/imports/:id", h.Imports.Status)
	}
	leads.GET("/:id", h.Leads.Get)
	leads.PUT("/:id", h.Leads.Update)
	leads.POST("/:id/tasks", h.Leads.AddTask)
	leads.POST("/:id/activities", h.Leads.AddActivity)

	tasks := api.Group("/tasks")
	tasks.GET("", h.Leads.ListTasks)
	tasks.PATCH("/:id/status", h.Leads.UpdateTaskStatus)

	board := api.Group("/pipeline")
	board.GET("/board", h.Pipeline.Board)
	board.GET("/funnel", h.Pipeline.Funnel)
	board.GET("/missed-follow-up", h.Pipeline.MissedFollowUp)

	api.GET("/reports/:report", h.Reports.Download)

	api.GET("/users", h.Directory.Users)
	api.GET("/roles", h.Directory.Roles)
	api.GET("/courses", h.Directory.Courses)
	api.GET("/institutions", h.Directory.Institutions)

	if h.Audit != nil {
		api.GET("/audit-logs", h.Audit.List)
	}
}
