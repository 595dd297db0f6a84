// internal/models/application.go
package models

import "time"

// ApplicationStatus is the server-side lifecycle state of an application.
type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusWithdrawn   ApplicationStatus = "withdrawn"
)

// Application is an application as returned by the backend.
type Application struct {
	ID                string            `json:"id"`
	ApplicationNumber string            `json:"applicationNumber"`
	Status            ApplicationStatus `json:"status"`
	PersonalDetails
	Agreements
	Documents []StoredDocument `json:"documents,omitempty"`
	Remarks   string           `json:"remarks,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Editable reports whether the backend will normally accept updates.
func (a *Application) Editable() bool {
	switch a.Status {
	case StatusApproved, StatusRejected, StatusWithdrawn:
		return false
	default:
		return true
	}
}

// SubmissionResult is returned by a successful create.
type SubmissionResult struct {
	ID                string `json:"id"`
	ApplicationNumber string `json:"applicationNumber"`
}

// Ack is returned by update and withdraw.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// StatusSummary counts the caller's applications by status.
type StatusSummary struct {
	Total       int                       `json:"total"`
	ByStatus    map[ApplicationStatus]int `json:"byStatus"`
	LastUpdated *time.Time                `json:"lastUpdated,omitempty"`
}
