package models

import "time"

// TaskType classifies a scheduled lead task.
type TaskType string

const (
	TaskFollowUp      TaskType = "Follow-up"
	TaskMeeting       TaskType = "Meeting"
	TaskDocumentation TaskType = "Documentation"
)

// TaskStatus is assigned by callers; it is never derived from the due date.
type TaskStatus string

const (
	TaskPending   TaskStatus = "Pending"
	TaskCompleted TaskStatus = "Completed"
	TaskOverdue   TaskStatus = "Overdue"
)

// TaskPriority orders follow-ups on the board.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "High"
	PriorityMedium TaskPriority = "Medium"
	PriorityLow    TaskPriority = "Low"
)

// Rank returns 0 for High, 1 for Medium and 2 for Low. Unknown priorities sort last.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Task is a to-do item owned by a lead.
type Task struct {
	ID             string       `json:"id"`
	LeadID         string       `json:"leadId"`
	Type           TaskType     `json:"type"`
	DueDate        time.Time    `json:"dueDate"`
	Status         TaskStatus   `json:"status"`
	Priority       TaskPriority `json:"priority"`
	Notes          string       `json:"notes"`
	AssignedUserID string       `json:"assignedUserId"`
}

// IsPendingFollowUp reports whether the task is an open follow-up.
func (t Task) IsPendingFollowUp() bool {
	return t.Type == TaskFollowUp && t.Status == TaskPending
}

// TaskFilter narrows the global task list.
type TaskFilter struct {
	LeadID         string
	AssignedUserID string
	Status         TaskStatus
	Type           TaskType
}
