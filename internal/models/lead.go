package models

import "time"

// LeadStage is the pipeline state a lead occupies.
type LeadStage string

const (
	StageNew         LeadStage = "New"
	StageContacted   LeadStage = "Contacted"
	StageQualified   LeadStage = "Qualified"
	StageApplication LeadStage = "Application"
	StageEnrolled    LeadStage = "Enrolled"
	StageDropped     LeadStage = "Dropped"
)

// LeadStages lists every stage in pipeline order.
var LeadStages = []LeadStage{StageNew, StageContacted, StageQualified, StageApplication, StageEnrolled, StageDropped}

// Valid reports whether s is one of the known stages.
func (s LeadStage) Valid() bool {
	for _, stage := range LeadStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Lead sources that require a qualifying value.
const (
	SourceSocialMedia = "Social Media"
	SourceReferral    = "Referral"
	SourceOther       = "Other"
)

// PhoneNumber is a titled contact number of a lead.
type PhoneNumber struct {
	Title  string `json:"title"`
	Number string `json:"number"`
}

// Contact is a secondary person attached to a lead, e.g. a parent or guardian.
type Contact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Document is a file reference attached to a lead.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Lead is a prospective student moving through the admissions pipeline.
type Lead struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	PhoneNumbers   []PhoneNumber `json:"phoneNumbers"`
	Stage          LeadStage     `json:"stage"`
	Source         string        `json:"source"`
	AssignedUserID string        `json:"assignedUserId"`
	CreatedAt      time.Time     `json:"createdAt"`
	Education      string        `json:"education,omitempty"`
	College        string        `json:"college,omitempty"`
	AcademicStatus string        `json:"academicStatus,omitempty"`
	CourseInterest string        `json:"courseInterest,omitempty"`
	Address        string        `json:"address,omitempty"`
	City           string        `json:"city,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	BirthDate      *time.Time    `json:"birthDate,omitempty"`
	Activities     []Activity    `json:"activities"`
	Tasks          []Task        `json:"tasks"`
	Documents      []Document    `json:"documents"`
	Contacts       []Contact     `json:"contacts"`
}

// Clone returns a deep copy of the lead.
func (l Lead) Clone() Lead {
	out := l
	out.PhoneNumbers = append([]PhoneNumber{}, l.PhoneNumbers...)
	out.Activities = append([]Activity{}, l.Activities...)
	out.Tasks = append([]Task{}, l.Tasks...)
	out.Documents = append([]Document{}, l.Documents...)
	out.Contacts = append([]Contact{}, l.Contacts...)
	if l.BirthDate != nil {
		birth := *l.BirthDate
		out.BirthDate = &birth
	}
	return out
}

// LastTouchedAt returns the most recent activity timestamp, or the creation time when that is later.
func (l Lead) LastTouchedAt() time.Time {
	if len(l.Activities) > 0 && l.Activities[0].Timestamp.After(l.CreatedAt) {
		return l.Activities[0].Timestamp
	}
	return l.CreatedAt
}

// LeadPatch carries a partial lead update. Nil fields are left untouched.
type LeadPatch struct {
	Name           *string
	Email          *string
	PhoneNumbers   []PhoneNumber
	Stage          *LeadStage
	Source         *string
	AssignedUserID *string
	Education      *string
	College        *string
	AcademicStatus *string
	CourseInterest *string
	Address        *string
	City           *string
	Gender         *string
	BirthDate      *time.Time
	Contacts       []Contact
}

// Empty reports whether the patch changes nothing.
func (p LeadPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PhoneNumbers == nil && p.Stage == nil && p.Source == nil &&
		p.AssignedUserID == nil && p.Education == nil && p.College == nil && p.AcademicStatus == nil &&
		p.CourseInterest == nil && p.Address == nil && p.City == nil && p.Gender == nil && p.BirthDate == nil &&
		p.Contacts == nil
}

// Apply merges the populated patch fields onto the lead.
func (p LeadPatch) Apply(l *Lead) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.PhoneNumbers != nil {
		l.PhoneNumbers = append([]PhoneNumber{}, p.PhoneNumbers...)
	}
	if p.Stage != nil {
		l.Stage = *p.Stage
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.AssignedUserID != nil {
		l.AssignedUserID = *p.AssignedUserID
	}
	if p.Education != nil {
		l.Education = *p.Education
	}
	if p.College != nil {
		l.College = *p.College
	}
	if p.AcademicStatus != nil {
		l.AcademicStatus = *p.AcademicStatus
	}
	if p.CourseInterest != nil {
		l.CourseInterest = *p.CourseInterest
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.Gender != nil {
		l.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		birth := *p.BirthDate
		l.BirthDate = &birth
	}
	if p.Contacts != nil {
		l.Contacts = append([]Contact{}, p.Contacts...)
	}
}

// LeadFilter encapsulates allowed search parameters for listing leads.
type LeadFilter struct {
	Stage          LeadStage
	AssignedUserID string
	Source         string
	Search         string
	Page           int
	PageSize       int
}

// LeadAssignment pairs a lead with the counselor it is distributed to.
type LeadAssignment struct {
	LeadID         string `json:"leadId"`
	AssignedUserID string `json:"assignedUserId"`
}
