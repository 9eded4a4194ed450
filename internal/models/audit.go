package models

import "time"

// Audit actions recorded for lead operations that touch many records at once.
const (
	AuditActionLeadBulkUpdate = "LEAD_BULK_UPDATE"
	AuditActionLeadBulkDelete = "LEAD_BULK_DELETE"
	AuditActionLeadDistribute = "LEAD_DISTRIBUTE"
	AuditActionLeadImport     = "LEAD_IMPORT"
)

// AuditResourceLead names the resource of every lead audit entry.
const AuditResourceLead = "lead"

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditRequest is the request summary stored in AuditLog.NewValues.
type AuditRequest struct {
	Path      string                 `json:"path"`
	Method    string                 `json:"method"`
	Status    int                    `json:"status"`
	LatencyMS int64                  `json:"latency"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
