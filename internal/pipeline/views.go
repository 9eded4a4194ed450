// Package pipeline holds the read-side projections over the lead collection. Every function
// is pure and is recomputed from the live collection on each call.
package pipeline

import (
	"sort"
	"time"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

// SortMode selects the in-column ordering of the board.
type SortMode string

const (
	SortByCreated  SortMode = "created"
	SortByPriority SortMode = "priority"
)

// Column is one stage bucket of the board.
type Column struct {
	Stage models.LeadStage `json:"stage"`
	Leads []models.Lead    `json:"leads"`
}

// FunnelStage is one bar of the funnel chart.
type FunnelStage struct {
	Stage models.LeadStage `json:"stage"`
	Count int              `json:"count"`
	Ratio float64          `json:"ratio"`
}

// GroupByStage partitions leads into the six stage buckets in pipeline order, keeping the
// input order inside each bucket.
func GroupByStage(leads []models.Lead) []Column {
	index := make(map[models.LeadStage]int, len(models.LeadStages))
	columns := make([]Column, len(models.LeadStages))
	for i, stage := range models.LeadStages {
		index[stage] = i
		columns[i] = Column{Stage: stage, Leads: []models.Lead{}}
	}
	for _, lead := range leads {
		if i, ok := index[lead.Stage]; ok {
			columns[i].Leads = append(columns[i].Leads, lead)
		}
	}
	return columns
}

// Board groups leads by stage and orders each column by mode.
func Board(leads []models.Lead, mode SortMode) []Column {
	columns := GroupByStage(leads)
	for i := range columns {
		SortLeads(columns[i].Leads, mode)
	}
	return columns
}

// SortLeads orders leads in place. SortByCreated is newest first. SortByPriority puts leads
// with a pending follow-up first, ordered by priority rank then due date; the rest follow by
// most recent touch. Ties fall back to id so the order is total.
func SortLeads(leads []models.Lead, mode SortMode) {
	if mode != SortByPriority {
		sort.SliceStable(leads, func(i, j int) bool {
			a, b := leads[i], leads[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		})
		return
	}

	type key struct {
		followUp *models.Task
		touched  time.Time
	}
	keys := make(map[string]key, len(leads))
	for _, lead := range leads {
		keys[lead.ID] = key{followUp: urgentFollowUp(lead), touched: lead.LastTouchedAt()}
	}
	sort.SliceStable(leads, func(i, j int) bool {
		a, b := keys[leads[i].ID], keys[leads[j].ID]
		switch {
		case a.followUp != nil && b.followUp == nil:
			return true
		case a.followUp == nil && b.followUp != nil:
			return false
		case a.followUp != nil && b.followUp != nil:
			ra, rb := a.followUp.Priority.Rank(), b.followUp.Priority.Rank()
			if ra != rb {
				return ra < rb
			}
			if !a.followUp.DueDate.Equal(b.followUp.DueDate) {
				return a.followUp.DueDate.Before(b.followUp.DueDate)
			}
		default:
			if !a.touched.Equal(b.touched) {
				return a.touched.After(b.touched)
			}
		}
		return leads[i].ID < leads[j].ID
	})
}

// urgentFollowUp returns the pending follow-up with the lowest (priority rank, due date).
func urgentFollowUp(lead models.Lead) *models.Task {
	var best *models.Task
	for i := range lead.Tasks {
		task := lead.Tasks[i]
		if !task.IsPendingFollowUp() {
			continue
		}
		if best == nil ||
			task.Priority.Rank() < best.Priority.Rank() ||
			(task.Priority.Rank() == best.Priority.Rank() && task.DueDate.Before(best.DueDate)) {
			best = &task
		}
	}
	return best
}

// NextFollowUp returns the earliest-due pending follow-up of the lead.
func NextFollowUp(lead models.Lead) (models.Task, bool) {
	var next *models.Task
	for i := range lead.Tasks {
		task := lead.Tasks[i]
		if !task.IsPendingFollowUp() {
			continue
		}
		if next == nil || task.DueDate.Before(next.DueDate) {
			next = &task
		}
	}
	if next == nil {
		return models.Task{}, false
	}
	return *next, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// IsMissedFollowUp reports whether the lead has a pending follow-up due on now's calendar
// day and no activity logged that day. Calendar days are taken in now's location.
func IsMissedFollowUp(lead models.Lead, now time.Time) bool {
	_, ok := missedFollowUpTask(lead, now)
	return ok
}

func missedFollowUpTask(lead models.Lead, now time.Time) (models.Task, bool) {
	for _, activity := range lead.Activities {
		if sameDay(now, activity.Timestamp) {
			return models.Task{}, false
		}
	}
	for _, task := range lead.Tasks {
		if task.IsPendingFollowUp() && sameDay(now, task.DueDate) {
			return task, true
		}
	}
	return models.Task{}, false
}

// FindMissedFollowUp returns the first lead, in collection order, with a missed follow-up
// together with the first follow-up of that lead due today.
func FindMissedFollowUp(leads []models.Lead, now time.Time) (models.Lead, models.Task, bool) {
	for _, lead := range leads {
		if task, ok := missedFollowUpTask(lead, now); ok {
			return lead, task, true
		}
	}
	return models.Lead{}, models.Task{}, false
}

// Funnel counts leads for every stage except Dropped and normalises each count against the
// largest bucket.
func Funnel(leads []models.Lead) []FunnelStage {
	counts := make(map[models.LeadStage]int, len(models.LeadStages))
	for _, lead := range leads {
		counts[lead.Stage]++
	}
	stages := make([]FunnelStage, 0, len(models.LeadStages)-1)
	largest := 0
	for _, stage := range models.LeadStages {
		if stage == models.StageDropped {
			continue
		}
		if counts[stage] > largest {
			largest = counts[stage]
		}
		stages = append(stages, FunnelStage{Stage: stage, Count: counts[stage]})
	}
	if largest > 0 {
		for i := range stages {
			stages[i].Ratio = float64(stages[i].Count) / float64(largest)
		}
	}
	return stages
}

// RoundRobin assigns leads[i] to counselors[i mod k]. It returns nil when no counselor is
// given.
func RoundRobin(leadIDs, counselorIDs []string) []models.LeadAssignment {
	if len(counselorIDs) == 0 {
		return nil
	}
	out := make([]models.LeadAssignment, len(leadIDs))
	for i, id := range leadIDs {
		out[i] = models.LeadAssignment{LeadID: id, AssignedUserID: counselorIDs[i%len(counselorIDs)]}
	}
	return out
}
