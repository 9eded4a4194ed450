package models

import "time"

// ActivityType classifies an interaction logged against a lead.
type ActivityType string

const (
	ActivityCall     ActivityType = "Call"
	ActivityEmail    ActivityType = "Email"
	ActivitySMS      ActivityType = "SMS"
	ActivityWhatsApp ActivityType = "WhatsApp"
	ActivityWalkIn   ActivityType = "Walk-in"
	ActivitySystem   ActivityType = "System"
)

// ActivityOutcomeLeadCreated is the outcome of the activity recorded when a lead is created.
const ActivityOutcomeLeadCreated = "Lead Created"

// SystemUserID is the actor of system generated activities.
const SystemUserID = "system"

// Activity is an immutable interaction log entry owned by one lead.
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Outcome   string       `json:"outcome"`
	Notes     string       `json:"notes"`
	UserID    string       `json:"userId"`
}
