package models

import "time"

// ImportStatus tracks the lifecycle of a bulk lead upload.
type ImportStatus string

const (
	ImportQueued     ImportStatus = "queued"
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportFailed     ImportStatus = "failed"
)

// ImportRowError reports why a CSV row was rejected.
type ImportRowError struct {
	Row     int                 `json:"row"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// ImportJob is the status record of a bulk lead upload.
type ImportJob struct {
	ID          string           `json:"id"`
	Filename    string           `json:"filename"`
	StoredPath  string           `json:"-"`
	Status      ImportStatus     `json:"status"`
	RequestedBy string           `json:"requestedBy,omitempty"`
	TotalRows   int              `json:"totalRows"`
	Created     int              `json:"created"`
	Failed      int              `json:"failed"`
	Errors      []ImportRowError `json:"errors,omitempty"`
	LeadIDs     []string         `json:"leadIds,omitempty"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	FinishedAt  *time.Time       `json:"finishedAt,omitempty"`
}
