package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

var (
	// ErrLeadNotFound is returned when a lead id does not resolve.
	ErrLeadNotFound = errors.New("lead not found")
	// ErrTaskNotFound is returned when a task id does not resolve.
	ErrTaskNotFound = errors.New("task not found")
)

// MissingLeadsError lists the ids of a bulk request that do not resolve.
type MissingLeadsError struct {
	IDs []string
}

func (e *MissingLeadsError) Error() string {
	return fmt.Sprintf("lead not found: %s", strings.Join(e.IDs, ", "))
}

// Is lets callers match the error with ErrLeadNotFound.
func (e *MissingLeadsError) Is(target error) bool {
	return target == ErrLeadNotFound
}

// LeadRepositoryOptions configures a LeadRepository.
type LeadRepositoryOptions struct {
	DefaultOwnerID string
	Clock          func() time.Time
	NewID          func() string
}

// LeadRepository is the in-memory store of leads and their tasks. Every method holds the
// store lock for its full duration, so each call applies atomically and concurrent callers
// resolve as last write wins.
type LeadRepository struct {
	mu           sync.RWMutex
	leads        []*models.Lead
	byID         map[string]*models.Lead
	tasks        []models.Task
	seq          int
	defaultOwner string
	now          func() time.Time
	newID        func() string
}

// NewLeadRepository constructs an empty store.
func NewLeadRepository(opts LeadRepositoryOptions) *LeadRepository {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &LeadRepository{
		byID:         make(map[string]*models.Lead),
		defaultOwner: opts.DefaultOwnerID,
		now:          opts.Clock,
		newID:        opts.NewID,
	}
}

func (r *LeadRepository) nextLeadID() string {
	r.seq++
	return fmt.Sprintf("LEAD-%05d", r.seq)
}

// CreateLead materialises a new lead at stage New, owned by the default owner, carrying one
// System activity that records its creation.
func (r *LeadRepository) CreateLead(ctx context.Context, draft models.Lead) models.Lead {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	lead := draft.Clone()
	lead.ID = r.nextLeadID()
	lead.Stage = models.StageNew
	lead.AssignedUserID = r.defaultOwner
	lead.CreatedAt = now
	lead.Activities = []models.Activity{{
		ID:        r.newID(),
		Type:      models.ActivitySystem,
		Timestamp: now,
		Outcome:   models.ActivityOutcomeLeadCreated,
		Notes:     fmt.Sprintf("Lead created from source: %s", lead.Source),
		UserID:    models.SystemUserID,
	}}
	lead.Tasks = []models.Task{}
	lead.Documents = []models.Document{}
	lead.Contacts = []models.Contact{}

	r.insert(&lead)
	return lead.Clone()
}

// Seed inserts fully materialised leads, keeping their ids and history. Lead tasks are
// added to the global task list. Ids are never reissued afterwards.
func (r *LeadRepository) Seed(ctx context.Context, leads ...models.Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range leads {
		lead := l.Clone()
		if lead.ID == "" {
			lead.ID = r.nextLeadID()
		} else if n, ok := parseLeadSeq(lead.ID); ok && n > r.seq {
			r.seq = n
		}
		if _, exists := r.byID[lead.ID]; exists {
			continue
		}
		r.insert(&lead)
		r.tasks = append(r.tasks, lead.Tasks...)
	}
}

func parseLeadSeq(id string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(id, "LEAD-%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

func (r *LeadRepository) insert(lead *models.Lead) {
	r.leads = append(r.leads, lead)
	r.byID[lead.ID] = lead
}

// FindLead returns the lead with the given id.
func (r *LeadRepository) FindLead(ctx context.Context, id string) (models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.byID[id]
	if !ok {
		return models.Lead{}, ErrLeadNotFound
	}
	return lead.Clone(), nil
}

// List returns every lead in collection order.
func (r *LeadRepository) List(ctx context.Context) []models.Lead {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		out = append(out, lead.Clone())
	}
	return out
}

// Count returns the number of stored leads.
func (r *LeadRepository) Count(ctx context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

// UpdateLead shallow-merges the patch onto the stored lead.
func (r *LeadRepository) UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.byID[id]
	if !ok {
		return models.Lead{}, ErrLeadNotFound
	}
	patch.Apply(lead)
	return lead.Clone(), nil
}

// AddActivity inserts an activity at the head of the lead's log.
func (r *LeadRepository) AddActivity(ctx context.Context, leadID string, activity models.Activity) (models.Activity, error) {
	created, _, err := r.AddActivityAndUpdate(ctx, leadID, activity, models.LeadPatch{})
	return created, err
}

// AddActivityAndUpdate logs an activity and applies the patch to the same lead in one step.
// Either both writes happen or neither does.
func (r *LeadRepository) AddActivityAndUpdate(ctx context.Context, leadID string, activity models.Activity, patch models.LeadPatch) (models.Activity, models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.byID[leadID]
	if !ok {
		return models.Activity{}, models.Lead{}, ErrLeadNotFound
	}
	activity.ID = r.newID()
	activity.Timestamp = r.now()
	lead.Activities = append([]models.Activity{activity}, lead.Activities...)
	if !patch.Empty() {
		patch.Apply(lead)
	}
	return activity, lead.Clone(), nil
}

// AddTask appends a pending task to the lead and to the global task list.
func (r *LeadRepository) AddTask(ctx context.Context, leadID string, task models.Task) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.byID[leadID]
	if !ok {
		return models.Task{}, ErrLeadNotFound
	}
	task.ID = r.newID()
	task.LeadID = leadID
	task.Status = models.TaskPending
	lead.Tasks = append(lead.Tasks, task)
	r.tasks = append(r.tasks, task)
	return task, nil
}

// ListTasks returns the global task list narrowed by the filter.
func (r *LeadRepository) ListTasks(ctx context.Context, filter models.TaskFilter) []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, 0)
	for _, task := range r.tasks {
		if filter.LeadID != "" && task.LeadID != filter.LeadID {
			continue
		}
		if filter.AssignedUserID != "" && task.AssignedUserID != filter.AssignedUserID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}
		out = append(out, task)
	}
	return out
}

// UpdateTaskStatus sets the status of a task in both the global list and its lead.
func (r *LeadRepository) UpdateTaskStatus(ctx context.Context, taskID string, status models.TaskStatus) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.tasks {
		if r.tasks[i].ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Task{}, ErrTaskNotFound
	}
	r.tasks[idx].Status = status
	if lead, ok := r.byID[r.tasks[idx].LeadID]; ok {
		for i := range lead.Tasks {
			if lead.Tasks[i].ID == taskID {
				lead.Tasks[i].Status = status
			}
		}
	}
	return r.tasks[idx], nil
}

// BulkAssign overwrites the assignee of every lead named in the assignments. Leads not named
// are untouched. Nothing is written when any lead id is unknown.
func (r *LeadRepository) BulkAssign(ctx context.Context, assignments []models.LeadAssignment) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(assignments))
	for i, a := range assignments {
		ids[i] = a.LeadID
	}
	if err := r.resolveAll(ids); err != nil {
		return 0, err
	}
	touched := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		r.byID[a.LeadID].AssignedUserID = a.AssignedUserID
		touched[a.LeadID] = struct{}{}
	}
	return len(touched), nil
}

// BulkUpdate merges the patch onto every named lead. Nothing is written when any id is unknown.
func (r *LeadRepository) BulkUpdate(ctx context.Context, ids []string, patch models.LeadPatch) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.resolveAll(ids); err != nil {
		return 0, err
	}
	unique := dedupe(ids)
	for _, id := range unique {
		patch.Apply(r.byID[id])
	}
	return len(unique), nil
}

// BulkDelete hard-removes the named leads together with their tasks in the global list.
// Nothing is removed when any id is unknown.
func (r *LeadRepository) BulkDelete(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.resolveAll(ids); err != nil {
		return 0, err
	}
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
		delete(r.byID, id)
	}

	kept := r.leads[:0]
	for _, lead := range r.leads {
		if _, ok := doomed[lead.ID]; !ok {
			kept = append(kept, lead)
		}
	}
	for i := len(kept); i < len(r.leads); i++ {
		r.leads[i] = nil
	}
	r.leads = kept

	tasks := make([]models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if _, ok := doomed[task.LeadID]; !ok {
			tasks = append(tasks, task)
		}
	}
	r.tasks = tasks
	return len(doomed), nil
}

func (r *LeadRepository) resolveAll(ids []string) error {
	var missing []string
	for _, id := range dedupe(ids) {
		if _, ok := r.byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingLeadsError{IDs: missing}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
