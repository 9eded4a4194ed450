package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/pipeline"
	"github.com/noah-isme/edu-erp-api/internal/repository"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
)

type leadStore interface {
	CreateLead(ctx context.Context, draft models.Lead) models.Lead
	FindLead(ctx context.Context, id string) (models.Lead, error)
	List(ctx context.Context) []models.Lead
	UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (models.Lead, error)
	AddActivityAndUpdate(ctx context.Context, leadID string, activity models.Activity, patch models.LeadPatch) (models.Activity, models.Lead, error)
	AddTask(ctx context.Context, leadID string, task models.Task) (models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) []models.Task
	UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) (models.Task, error)
	BulkAssign(ctx context.Context, assignments []models.LeadAssignment) (int, error)
	BulkUpdate(ctx context.Context, ids []string, patch models.LeadPatch) (int, error)
	BulkDelete(ctx context.Context, ids []string) (int, error)
}

type userFinder interface {
	FindUser(ctx context.Context, id string) (models.User, error)
}

type leadMetrics interface {
	RecordLeadMutation(operation string, count int)
}

// LeadServiceConfig tunes date handling.
type LeadServiceConfig struct {
	// Location is used to read date-only inputs such as task due dates.
	Location *time.Location
}

// LeadService implements the lead mutation operations on top of the entity store.
type LeadService struct {
	store     leadStore
	users     userFinder
	validator *validator.Validate
	metrics   leadMetrics
	logger    *zap.Logger
	loc       *time.Location
}

// NewLeadService constructs the lead service.
func NewLeadService(store leadStore, users userFinder, validate *validator.Validate, metrics leadMetrics, logger *zap.Logger, cfg LeadServiceConfig) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &LeadService{
		store:     store,
		users:     users,
		validator: NewLeadValidator(validate),
		metrics:   metrics,
		logger:    logger,
		loc:       cfg.Location,
	}
}

// CreateLead validates the payload and stores a new lead at stage New.
func (s *LeadService) CreateLead(ctx context.Context, req dto.CreateLeadRequest) (*dto.MutationResult, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("lead create rejected", zap.Error(err))
		return nil, validationError(err, "invalid lead payload")
	}
	draft := models.Lead{
		Name:           req.Name,
		Email:          req.Email,
		PhoneNumbers:   dto.PhoneNumbersModel(req.PhoneNumbers),
		Source:         composeSource(req.Source, req.OtherSource, req.SocialMediaChannel, req.ReferrerName),
		Education:      deref(req.Education),
		College:        deref(req.College),
		AcademicStatus: deref(req.AcademicStatus),
		CourseInterest: deref(req.CourseInterest),
		Address:        deref(req.Address),
		City:           deref(req.City),
		Gender:         deref(req.Gender),
		BirthDate:      s.parseBirthDate(req.BirthDate),
	}
	lead := s.store.CreateLead(ctx, draft)
	s.logger.Info("lead created", zap.String("lead_id", lead.ID), zap.String("source", lead.Source))
	s.record("create", 1)
	return &dto.MutationResult{
		Message: fmt.Sprintf("Lead \"%s\" created successfully.", lead.Name),
		Count:   1,
		Lead:    &lead,
	}, nil
}

// UpdateLead validates the payload and merges it onto the stored lead.
func (s *LeadService) UpdateLead(ctx context.Context, req dto.UpdateLeadRequest) (*dto.MutationResult, error) {
	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("lead update rejected", zap.String("lead_id", req.ID), zap.Error(err))
		return nil, validationError(err, "invalid lead payload")
	}
	source := composeSource(req.Source, req.OtherSource, req.SocialMediaChannel, req.ReferrerName)
	patch := models.LeadPatch{
		Name:           &req.Name,
		Email:          &req.Email,
		PhoneNumbers:   dto.PhoneNumbersModel(req.PhoneNumbers),
		Source:         &source,
		AssignedUserID: &req.AssignedUserID,
		Education:      req.Education,
		College:        req.College,
		AcademicStatus: req.AcademicStatus,
		CourseInterest: req.CourseInterest,
		Address:        req.Address,
		City:           req.City,
		Gender:         req.Gender,
		BirthDate:      s.parseBirthDate(req.BirthDate),
	}
	if req.Stage != "" {
		stage := models.LeadStage(req.Stage)
		patch.Stage = &stage
	}
	if req.Contacts != nil {
		patch.Contacts = dto.ContactsModel(req.Contacts)
	}
	lead, err := s.store.UpdateLead(ctx, req.ID, patch)
	if err != nil {
		return nil, s.storeError(err, "failed to update lead")
	}
	s.logger.Info("lead updated", zap.String("lead_id", lead.ID))
	s.record("update", 1)
	return &dto.MutationResult{
		Message: fmt.Sprintf("Lead \"%s\" updated successfully.", lead.Name),
		Count:   1,
		Lead:    &lead,
	}, nil
}

// AddTask schedules a pending task for a lead.
func (s *LeadService) AddTask(ctx context.Context, req dto.AddTaskRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("task rejected", zap.String("lead_id", req.LeadID), zap.Error(err))
		return nil, validationError(err, "invalid task payload")
	}
	due, err := dto.ParseDate(req.DueDate, s.loc)
	if err != nil {
		fields := appErrors.FieldErrors{}
		fields.Add("dueDate", "must be a valid date")
		return nil, appErrors.Validation("invalid task payload", fields)
	}
	task, err := s.store.AddTask(ctx, req.LeadID, models.Task{
		Type:           models.TaskType(req.Type),
		DueDate:        due,
		Priority:       models.TaskPriority(req.Priority),
		Notes:          req.Notes,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		return nil, s.storeError(err, "failed to add task")
	}
	s.logger.Info("task added", zap.String("lead_id", req.LeadID), zap.String("task_id", task.ID))
	s.record("add_task", 1)
	return &dto.MutationResult{Message: "Task added successfully.", Count: 1, Task: &task}, nil
}

// AddActivity logs an interaction. CourseInterest and stage, when supplied, are merged onto
// the lead in the same store operation.
func (s *LeadService) AddActivity(ctx context.Context, req dto.AddActivityRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("activity rejected", zap.String("lead_id", req.LeadID), zap.Error(err))
		return nil, validationError(err, "invalid activity payload")
	}
	var patch models.LeadPatch
	if course := strings.TrimSpace(req.CourseInterest); course != "" {
		patch.CourseInterest = &course
	}
	if req.Stage != "" {
		stage := models.LeadStage(req.Stage)
		patch.Stage = &stage
	}
	activity, lead, err := s.store.AddActivityAndUpdate(ctx, req.LeadID, models.Activity{
		Type:    models.ActivityType(req.Type),
		Outcome: req.Outcome,
		Notes:   req.Notes,
		UserID:  req.UserID,
	}, patch)
	if err != nil {
		return nil, s.storeError(err, "failed to log activity")
	}
	s.logger.Info("activity logged", zap.String("lead_id", lead.ID), zap.String("type", string(activity.Type)))
	s.record("add_activity", 1)
	return &dto.MutationResult{Message: "Activity logged successfully.", Count: 1, Lead: &lead, Activity: &activity}, nil
}

// BulkUpdate applies a stage move, a single assignee or an explicit distribution to many
// leads. A request naming none of them performs no write.
func (s *LeadService) BulkUpdate(ctx context.Context, req dto.BulkUpdateRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("bulk update rejected", zap.Error(err))
		return nil, validationError(err, "invalid bulk update payload")
	}
	switch {
	case len(req.Distribution) > 0:
		assignments := make([]models.LeadAssignment, len(req.Distribution))
		userIDs := make([]string, len(req.Distribution))
		for i, entry := range req.Distribution {
			assignments[i] = models.LeadAssignment{LeadID: entry.LeadID, AssignedUserID: entry.AssignedUserID}
			userIDs[i] = entry.AssignedUserID
		}
		if err := s.ensureUsers(ctx, userIDs); err != nil {
			return nil, err
		}
		return s.assign(ctx, assignments)
	case req.Stage != "":
		stage := models.LeadStage(req.Stage)
		count, err := s.store.BulkUpdate(ctx, req.LeadIDs, models.LeadPatch{Stage: &stage})
		if err != nil {
			return nil, s.storeError(err, "failed to update leads")
		}
		s.logger.Info("leads moved", zap.Int("count", count), zap.String("stage", req.Stage))
		s.record("bulk_stage", count)
		return &dto.MutationResult{Message: fmt.Sprintf("%d lead(s) moved to %s.", count, stage), Count: count}, nil
	case req.AssignedUserID != "":
		user, err := s.users.FindUser(ctx, req.AssignedUserID)
		if err != nil {
			return nil, s.userError(err)
		}
		count, err := s.store.BulkUpdate(ctx, req.LeadIDs, models.LeadPatch{AssignedUserID: &user.ID})
		if err != nil {
			return nil, s.storeError(err, "failed to update leads")
		}
		s.logger.Info("leads assigned", zap.Int("count", count), zap.String("user_id", user.ID))
		s.record("bulk_assign", count)
		return &dto.MutationResult{Message: fmt.Sprintf("%d lead(s) assigned to %s.", count, user.Name), Count: count}, nil
	default:
		return &dto.MutationResult{Message: "No updates performed."}, nil
	}
}

// BulkDelete hard-removes the named leads.
func (s *LeadService) BulkDelete(ctx context.Context, req dto.BulkDeleteRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("bulk delete rejected", zap.Error(err))
		return nil, validationError(err, "invalid bulk delete payload")
	}
	count, err := s.store.BulkDelete(ctx, req.LeadIDs)
	if err != nil {
		return nil, s.storeError(err, "failed to delete leads")
	}
	s.logger.Info("leads deleted", zap.Int("count", count))
	s.record("bulk_delete", count)
	return &dto.MutationResult{Message: fmt.Sprintf("%d lead(s) deleted successfully.", count), Count: count}, nil
}

// DistributeLeads assigns leads round-robin across counselors. Without explicit lead ids
// every lead in stage New is distributed, in collection order.
func (s *LeadService) DistributeLeads(ctx context.Context, req dto.DistributeLeadsRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.logger.Debug("distribution rejected", zap.Error(err))
		return nil, validationError(err, "invalid distribution payload")
	}
	if err := s.ensureUsers(ctx, req.CounselorIDs); err != nil {
		return nil, err
	}
	leadIDs := req.LeadIDs
	if len(leadIDs) == 0 {
		for _, lead := range s.store.List(ctx) {
			if lead.Stage == models.StageNew {
				leadIDs = append(leadIDs, lead.ID)
			}
		}
	}
	if len(leadIDs) == 0 {
		return &dto.MutationResult{Message: "No updates performed."}, nil
	}
	return s.assign(ctx, pipeline.RoundRobin(leadIDs, req.CounselorIDs))
}

func (s *LeadService) assign(ctx context.Context, assignments []models.LeadAssignment) (*dto.MutationResult, error) {
	count, err := s.store.BulkAssign(ctx, assignments)
	if err != nil {
		return nil, s.storeError(err, "failed to distribute leads")
	}
	s.logger.Info("leads distributed", zap.Int("count", count))
	s.record("distribute", count)
	return &dto.MutationResult{
		Message:     fmt.Sprintf("%d lead(s) distributed successfully.", count),
		Count:       count,
		Assignments: assignments,
	}, nil
}

// Get returns a single lead.
func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, error) {
	lead, err := s.store.FindLead(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to load lead")
	}
	return &lead, nil
}

// List returns the filtered page of leads in collection order.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	source := strings.ToLower(strings.TrimSpace(filter.Source))

	matched := make([]models.Lead, 0)
	for _, lead := range s.store.List(ctx) {
		if filter.Stage != "" && lead.Stage != filter.Stage {
			continue
		}
		if filter.AssignedUserID != "" && lead.AssignedUserID != filter.AssignedUserID {
			continue
		}
		if source != "" && !strings.Contains(strings.ToLower(lead.Source), source) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(lead.Name), search) && !strings.Contains(strings.ToLower(lead.Email), search) {
			continue
		}
		matched = append(matched, lead)
	}

	total := len(matched)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListTasks returns the global task list narrowed by the filter.
func (s *LeadService) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.store.ListTasks(ctx, filter), nil
}

// UpdateTaskStatus sets a caller-chosen task status.
func (s *LeadService) UpdateTaskStatus(ctx context.Context, req dto.UpdateTaskStatusRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid task status payload")
	}
	task, err := s.store.UpdateTaskStatus(ctx, req.TaskID, models.TaskStatus(req.Status))
	if err != nil {
		return nil, s.storeError(err, "failed to update task")
	}
	s.logger.Info("task status updated", zap.String("task_id", task.ID), zap.String("status", req.Status))
	s.record("task_status", 1)
	return &dto.MutationResult{Message: fmt.Sprintf("Task marked as %s.", task.Status), Count: 1, Task: &task}, nil
}

func (s *LeadService) ensureUsers(ctx context.Context, ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.users.FindUser(ctx, id); err != nil {
			return s.userError(err)
		}
	}
	return nil
}

func (s *LeadService) userError(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
}

func (s *LeadService) storeError(err error, message string) error {
	var missing *repository.MissingLeadsError
	switch {
	case errors.As(err, &missing):
		s.logger.Warn("bulk request references unknown leads", zap.Strings("lead_ids", missing.IDs))
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, fmt.Sprintf("lead not found: %s", strings.Join(missing.IDs, ", ")))
	case errors.Is(err, repository.ErrLeadNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "lead not found")
	case errors.Is(err, repository.ErrTaskNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "task not found")
	default:
		s.logger.Error(message, zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func (s *LeadService) record(operation string, count int) {
	if s.metrics != nil {
		s.metrics.RecordLeadMutation(operation, count)
	}
}

func (s *LeadService) parseBirthDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := dto.ParseDate(*raw, s.loc)
	if err != nil {
		return nil
	}
	return &t
}

// composeSource splices the qualifier into the stored source string.
func composeSource(source, otherSource, socialMediaChannel, referrerName string) string {
	switch source {
	case models.SourceOther:
		return otherSource
	case models.SourceSocialMedia:
		return fmt.Sprintf("%s - %s", models.SourceSocialMedia, socialMediaChannel)
	case models.SourceReferral:
		return fmt.Sprintf("%s - %s", models.SourceReferral, referrerName)
	default:
		return source
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
