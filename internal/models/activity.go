package models

import "time"

// Audience selects the wording of activity feed messages.
type Audience string

const (
	AudienceStudent   Audience = "student"
	AudienceRegistrar Audience = "registrar"
)

// ActivityItem is a display-ready activity feed row.
type ActivityItem struct {
	LogID        int64         `json:"logId"`
	RequestID    int64         `json:"requestId"`
	Title        string        `json:"title"`
	Message      string        `json:"message"`
	Status       RequestStatus `json:"status"`
	ChangedAt    time.Time     `json:"changedAt"`
	RelativeTime string        `json:"relativeTime"`
}

// ClaimSlip is the printable pickup slip of a ready request.
type ClaimSlip struct {
	ClaimNumber        string        `json:"claimNumber"`
	RequestID          int64         `json:"requestId"`
	StudentName        string        `json:"studentName"`
	StudentID          string        `json:"studentId"`
	DocumentType       string        `json:"documentType"`
	Copies             int           `json:"copies"`
	Status             RequestStatus `json:"status"`
	DateReady          Date          `json:"dateReady"`
	DateReadyEstimated bool          `json:"dateReadyEstimated"`
	ProofOfPayment     *string       `json:"proofOfPayment,omitempty"`
	Instructions       []string      `json:"instructions"`
	GeneratedAt        time.Time     `json:"generatedAt"`
}
