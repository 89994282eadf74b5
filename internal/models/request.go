package models

import (
	"encoding/json"
	"strings"
	"time"
)

// RequestStatus captures the lifecycle states of a document request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusProcessing RequestStatus = "PROCESSING"
	RequestStatusApproved   RequestStatus = "APPROVED"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusRejected   RequestStatus = "REJECTED"
)

// RequestStatuses lists every status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusProcessing,
	RequestStatusApproved,
	RequestStatusCompleted,
	RequestStatusRejected,
}

// ParseRequestStatus canonicalises a wire value. Matching is case-insensitive.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	candidate := RequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	for _, status := range RequestStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts any casing of a known status. Unknown values are kept as sent.
func (s *RequestStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if status, ok := ParseRequestStatus(raw); ok {
		*s = status
		return nil
	}
	*s = RequestStatus(raw)
	return nil
}

// Ready reports whether the document can be picked up (or already was).
func (s RequestStatus) Ready() bool {
	return s == RequestStatusApproved || s == RequestStatusCompleted
}

// DocumentType is the catalogue entry a request is made for.
type DocumentType struct {
	DocumentID  int64   `db:"document_id" json:"documentId"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description,omitempty"`
	Fee         float64 `db:"fee" json:"fee"`
	Active      bool    `db:"active" json:"active"`
}

// Request is a student's document request.
type Request struct {
	RequestID      int64         `json:"requestId"`
	UserID         string        `json:"userId"`
	StudentID      string        `json:"studentId"`
	StudentName    string        `json:"studentName"`
	DocumentType   DocumentType  `json:"documentType"`
	Copies         int           `json:"copies"`
	DateNeeded     Date          `json:"dateNeeded"`
	Status         RequestStatus `json:"status"`
	Remarks        *string       `json:"remarks,omitempty"`
	DateReady      *Date         `json:"dateReady,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	ProofOfPayment *string       `json:"proofOfPayment,omitempty"`
}

// RequestFilter narrows store reads. Projection happens after the read.
type RequestFilter struct {
	UserID string
	Status []RequestStatus
}

// CreateRequestInput is the validated submission of a new request.
type CreateRequestInput struct {
	UserID      string
	StudentID   string
	StudentName string
	DocumentID  int64
	Copies      int
	DateNeeded  Date
	Remarks     *string
}

// StatusChange is a registrar's accepted status change ready to persist.
type StatusChange struct {
	RequestID      int64
	ExpectedStatus RequestStatus
	NewStatus      RequestStatus
	Remarks        *string
	DateReady      *Date
	ChangedBy      string
	ChangedAt      time.Time
}

// RequestStats aggregates request counts for dashboards.
type RequestStats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Processing     int `json:"processing"`
	Approved       int `json:"approved"`
	Completed      int `json:"completed"`
	Rejected       int `json:"rejected"`
	ReadyForPickup int `json:"readyForPickup"`
}
