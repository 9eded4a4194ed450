package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/pipeline"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
)

type leadLister interface {
	List(ctx context.Context) []models.Lead
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	// Location defines the calendar day used by the follow-up alert.
	Location *time.Location
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Leads  leadLister
	Logger *zap.Logger
	Clock  func() time.Time
	Config DashboardServiceConfig
}

// DashboardService composes the pipeline views from the live lead collection.
type DashboardService struct {
	leads  leadLister
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &DashboardService{leads: params.Leads, logger: logger, now: clock, cfg: cfg}
}

// ParseSortMode resolves the board sort query value, defaulting to created.
func ParseSortMode(raw string) (pipeline.SortMode, error) {
	switch pipeline.SortMode(raw) {
	case "", pipeline.SortByCreated:
		return pipeline.SortByCreated, nil
	case pipeline.SortByPriority:
		return pipeline.SortByPriority, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUnsupported, "sort must be created or priority")
	}
}

// Board returns the kanban columns in pipeline order.
func (s *DashboardService) Board(ctx context.Context, mode pipeline.SortMode) (*dto.BoardResponse, error) {
	columns := pipeline.Board(s.leads.List(ctx), mode)
	resp := &dto.BoardResponse{Sort: mode, Columns: make([]dto.BoardColumn, len(columns))}
	for i, column := range columns {
		cards := make([]dto.BoardCard, len(column.Leads))
		for j, lead := range column.Leads {
			cards[j] = boardCard(lead)
		}
		resp.Columns[i] = dto.BoardColumn{Stage: column.Stage, Count: len(cards), Cards: cards}
	}
	return resp, nil
}

// Funnel returns the stage funnel, Dropped excluded.
func (s *DashboardService) Funnel(ctx context.Context) (*dto.FunnelResponse, error) {
	leads := s.leads.List(ctx)
	stages := pipeline.Funnel(leads)
	total := 0
	for _, stage := range stages {
		total += stage.Count
	}
	return &dto.FunnelResponse{Total: total, Stages: stages}, nil
}

// MissedFollowUp returns the first lead whose follow-up due today has no activity today.
func (s *DashboardService) MissedFollowUp(ctx context.Context) (*dto.MissedFollowUpResponse, error) {
	now := s.now().In(s.cfg.Location)
	lead, task, ok := pipeline.FindMissedFollowUp(s.leads.List(ctx), now)
	if !ok {
		return &dto.MissedFollowUpResponse{}, nil
	}
	card := boardCard(lead)
	s.logger.Debug("missed follow-up detected", zap.String("lead_id", lead.ID), zap.String("task_id", task.ID))
	return &dto.MissedFollowUpResponse{Lead: &card, Task: &task}, nil
}

func boardCard(lead models.Lead) dto.BoardCard {
	card := dto.BoardCard{
		ID:             lead.ID,
		Name:           lead.Name,
		Email:          lead.Email,
		Stage:          lead.Stage,
		Source:         lead.Source,
		AssignedUserID: lead.AssignedUserID,
		CourseInterest: lead.CourseInterest,
		CreatedAt:      lead.CreatedAt,
		LastTouchedAt:  lead.LastTouchedAt(),
	}
	if next, ok := pipeline.NextFollowUp(lead); ok {
		card.NextFollowUp = &next
	}
	return card
}
