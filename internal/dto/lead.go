package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/edu-erp-api/internal/models"
)

// DateLayouts are the accepted layouts for date strings, tried in order.
var DateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// ParseDate parses a date string in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range DateLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// PhoneNumberInput is one submitted phone entry.
type PhoneNumberInput struct {
	Title  string `json:"title" validate:"max=40"`
	Number string `json:"number" validate:"required,phone"`
}

// ContactInput is a submitted secondary contact.
type ContactInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Relation string `json:"relation" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// LeadProfileInput holds the optional demographic fields shared by create and update.
type LeadProfileInput struct {
	Education      *string `json:"education,omitempty"`
	College        *string `json:"college,omitempty"`
	AcademicStatus *string `json:"academicStatus,omitempty"`
	CourseInterest *string `json:"courseInterest,omitempty"`
	Address        *string `json:"address,omitempty"`
	City           *string `json:"city,omitempty"`
	Gender         *string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female Other"`
	BirthDate      *string `json:"birthDate,omitempty" validate:"omitempty,date_string"`
}

// CreateLeadRequest is the payload for creating a lead.
type CreateLeadRequest struct {
	Name               string             `json:"name" validate:"required,min=2"`
	Email              string             `json:"email" validate:"required,email"`
	PhoneNumbers       []PhoneNumberInput `json:"phoneNumbers" validate:"required,min=1,dive"`
	Source             string             `json:"source" validate:"required"`
	OtherSource        string             `json:"otherSource,omitempty"`
	SocialMediaChannel string             `json:"socialMediaChannel,omitempty"`
	ReferrerName       string             `json:"referrerName,omitempty"`
	LeadProfileInput
}

// SourceFields exposes the source and its qualifiers.
func (r CreateLeadRequest) SourceFields() (source, otherSource, socialMediaChannel, referrerName string) {
	return r.Source, r.OtherSource, r.SocialMediaChannel, r.ReferrerName
}

// Normalize trims text input and drops phone entries without a number.
func (r *CreateLeadRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Source = strings.TrimSpace(r.Source)
	r.OtherSource = strings.TrimSpace(r.OtherSource)
	r.SocialMediaChannel = strings.TrimSpace(r.SocialMediaChannel)
	r.ReferrerName = strings.TrimSpace(r.ReferrerName)
	r.PhoneNumbers = normalizePhones(r.PhoneNumbers)
	r.LeadProfileInput.normalize()
}

// UpdateLeadRequest is the payload for updating a lead. The assignee is required here.
type UpdateLeadRequest struct {
	ID                 string             `json:"id" validate:"required"`
	Name               string             `json:"name" validate:"required,min=2"`
	Email              string             `json:"email" validate:"required,email"`
	PhoneNumbers       []PhoneNumberInput `json:"phoneNumbers" validate:"required,min=1,dive"`
	Source             string             `json:"source" validate:"required"`
	OtherSource        string             `json:"otherSource,omitempty"`
	SocialMediaChannel string             `json:"socialMediaChannel,omitempty"`
	ReferrerName       string             `json:"referrerName,omitempty"`
	AssignedUserID     string             `json:"assignedUserId" validate:"required"`
	Stage              string             `json:"stage,omitempty" validate:"omitempty,lead_stage"`
	Contacts           []ContactInput     `json:"contacts,omitempty" validate:"omitempty,dive"`
	LeadProfileInput
}

// SourceFields exposes the source and its qualifiers.
func (r UpdateLeadRequest) SourceFields() (source, otherSource, socialMediaChannel, referrerName string) {
	return r.Source, r.OtherSource, r.SocialMediaChannel, r.ReferrerName
}

// Normalize trims text input and drops phone entries without a number.
func (r *UpdateLeadRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Source = strings.TrimSpace(r.Source)
	r.OtherSource = strings.TrimSpace(r.OtherSource)
	r.SocialMediaChannel = strings.TrimSpace(r.SocialMediaChannel)
	r.ReferrerName = strings.TrimSpace(r.ReferrerName)
	r.AssignedUserID = strings.TrimSpace(r.AssignedUserID)
	r.PhoneNumbers = normalizePhones(r.PhoneNumbers)
	r.LeadProfileInput.normalize()
}

func (p *LeadProfileInput) normalize() {
	for _, field := range []**string{&p.Education, &p.College, &p.AcademicStatus, &p.CourseInterest, &p.Address, &p.City, &p.Gender, &p.BirthDate} {
		if *field == nil {
			continue
		}
		trimmed := strings.TrimSpace(**field)
		*field = &trimmed
	}
}

func normalizePhones(phones []PhoneNumberInput) []PhoneNumberInput {
	out := make([]PhoneNumberInput, 0, len(phones))
	for _, p := range phones {
		p.Title = strings.TrimSpace(p.Title)
		p.Number = strings.Join(strings.Fields(p.Number), "")
		if p.Number == "" {
			continue
		}
		if p.Title == "" {
			p.Title = "Mobile"
		}
		out = append(out, p)
	}
	return out
}

// PhoneNumbersModel converts validated phone input to model values.
func PhoneNumbersModel(phones []PhoneNumberInput) []models.PhoneNumber {
	out := make([]models.PhoneNumber, len(phones))
	for i, p := range phones {
		out[i] = models.PhoneNumber{Title: p.Title, Number: p.Number}
	}
	return out
}

// ContactsModel converts validated contact input to model values.
func ContactsModel(contacts []ContactInput) []models.Contact {
	out := make([]models.Contact, len(contacts))
	for i, c := range contacts {
		out[i] = models.Contact{Name: c.Name, Relation: c.Relation, Phone: c.Phone, Email: c.Email}
	}
	return out
}

// AddTaskRequest is the payload for scheduling a lead task.
type AddTaskRequest struct {
	LeadID         string `json:"leadId" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=Follow-up Meeting Documentation"`
	DueDate        string `json:"dueDate" validate:"required,date_string"`
	Priority       string `json:"priority" validate:"required,oneof=High Medium Low"`
	Notes          string `json:"notes" validate:"required,min=3"`
	AssignedUserID string `json:"assignedUserId" validate:"required"`
}

// AddActivityRequest is the payload for logging an interaction. CourseInterest and Stage,
// when present, are applied to the lead together with the activity.
type AddActivityRequest struct {
	LeadID         string `json:"leadId" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=Call Email SMS WhatsApp Walk-in"`
	Outcome        string `json:"outcome" validate:"required,min=3"`
	Notes          string `json:"notes" validate:"required,min=3"`
	UserID         string `json:"userId" validate:"required"`
	CourseInterest string `json:"courseInterest,omitempty"`
	Stage          string `json:"stage,omitempty" validate:"omitempty,lead_stage"`
}

// DistributionEntry assigns one lead to one counselor.
type DistributionEntry struct {
	LeadID         string `json:"leadId" validate:"required"`
	AssignedUserID string `json:"assignedUserId" validate:"required"`
}

// BulkUpdateRequest moves, assigns or distributes a set of leads. The mode is chosen by the
// populated field: distribution, then stage, then assignedUserId.
type BulkUpdateRequest struct {
	LeadIDs        []string            `json:"leadIds" validate:"required,min=1,dive,required"`
	Stage          string              `json:"stage,omitempty" validate:"omitempty,lead_stage"`
	AssignedUserID string              `json:"assignedUserId,omitempty"`
	Distribution   []DistributionEntry `json:"distribution,omitempty" validate:"omitempty,dive"`
}

// BulkDeleteRequest removes a set of leads.
type BulkDeleteRequest struct {
	LeadIDs []string `json:"leadIds" validate:"required,min=1,dive,required"`
}

// DistributeLeadsRequest spreads leads round-robin over counselors. Without lead ids every
// lead currently in stage New is distributed.
type DistributeLeadsRequest struct {
	CounselorIDs []string `json:"counselorIds" validate:"required,min=1,dive,required"`
	LeadIDs      []string `json:"leadIds,omitempty" validate:"omitempty,dive,required"`
}

// UpdateTaskStatusRequest sets a task status.
type UpdateTaskStatusRequest struct {
	TaskID string `json:"taskId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=Pending Completed Overdue"`
}

// MutationResult is the confirmation returned by every lead mutation.
type MutationResult struct {
	Message     string                  `json:"message"`
	Count       int                     `json:"count,omitempty"`
	Lead        *models.Lead            `json:"lead,omitempty"`
	Task        *models.Task            `json:"task,omitempty"`
	Activity    *models.Activity        `json:"activity,omitempty"`
	Assignments []models.LeadAssignment `json:"assignments,omitempty"`
}
