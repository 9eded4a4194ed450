package dto

import (
	"time"

	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/pipeline"
)

// BoardCard is the kanban projection of a lead.
type BoardCard struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Stage          models.LeadStage `json:"stage"`
	Source         string           `json:"source"`
	AssignedUserID string           `json:"assignedUserId"`
	CourseInterest string           `json:"courseInterest,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	LastTouchedAt  time.Time        `json:"lastTouchedAt"`
	NextFollowUp   *models.Task     `json:"nextFollowUp,omitempty"`
}

// BoardColumn is one stage of the kanban board.
type BoardColumn struct {
	Stage models.LeadStage `json:"stage"`
	Count int              `json:"count"`
	Cards []BoardCard      `json:"cards"`
}

// BoardResponse is the kanban board payload.
type BoardResponse struct {
	Sort    pipeline.SortMode `json:"sort"`
	Columns []BoardColumn     `json:"columns"`
}

// FunnelResponse is the funnel chart payload.
type FunnelResponse struct {
	Total  int                    `json:"total"`
	Stages []pipeline.FunnelStage `json:"stages"`
}

// MissedFollowUpResponse is the follow-up alert payload. Lead is nil when nothing is missed.
type MissedFollowUpResponse struct {
	Lead *BoardCard   `json:"lead,omitempty"`
	Task *models.Task `json:"task,omitempty"`
}
