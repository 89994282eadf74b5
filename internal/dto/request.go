package dto

import "github.com/noah-isme/citedocs-api/internal/models"

// CreateRequestPayload is a student's document request submission.
type CreateRequestPayload struct {
	DocumentID int64       `json:"documentId" validate:"required,min=1"`
	Copies     int         `json:"copies" validate:"required,min=1,max=20"`
	DateNeeded models.Date `json:"dateNeeded"`
	Remarks    string      `json:"remarks" validate:"max=500"`
}

// UpdateStatusPayload is a registrar's status change.
// ExpectedStatus, when set, is the status the caller last observed.
type UpdateStatusPayload struct {
	Status         string       `json:"status" validate:"required"`
	Remarks        string       `json:"remarks" validate:"max=500"`
	DateReady      *models.Date `json:"dateReady"`
	ExpectedStatus string       `json:"expectedStatus"`
}

// RequestListQuery mirrors the list endpoint query string.
type RequestListQuery struct {
	UserID       string `form:"userId"`
	Status       string `form:"status"`
	DocumentType string `form:"documentType"`
	Search       string `form:"search"`
	View         string `form:"view"`
}

// StatusLogQuery mirrors the status log endpoint query string.
type StatusLogQuery struct {
	UserID    string `form:"userId"`
	RequestID int64  `form:"requestId"`
}

// ExportQuery selects the register export format.
type ExportQuery struct {
	RequestListQuery
	Format string `form:"format"`
}
