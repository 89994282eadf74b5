package models

import "time"

// StatusLogEntry is an append-only record of one status transition.
type StatusLogEntry struct {
	LogID         int64          `db:"log_id" json:"logId"`
	RequestID     int64          `db:"request_id" json:"requestId"`
	OldStatus     *RequestStatus `db:"old_status" json:"oldStatus"`
	NewStatus     RequestStatus  `db:"new_status" json:"newStatus"`
	ChangedAt     time.Time      `db:"changed_at" json:"changedAt"`
	ChangedBy     *string        `db:"changed_by" json:"changedBy"`
	ChangedByName *string        `db:"changed_by_name" json:"changedByName"`
	Remarks       *string        `db:"remarks" json:"remarks,omitempty"`
	DocumentName  string         `db:"document_name" json:"documentName"`
	StudentName   string         `db:"student_name" json:"studentName"`
}

// IsSubmission reports whether the entry records the initial submission.
func (e StatusLogEntry) IsSubmission() bool {
	return e.OldStatus == nil
}

// StatusLogFilter narrows status log reads.
type StatusLogFilter struct {
	UserID    string
	RequestID int64
	Since     *time.Time
}
