// internal/application/wizard-controller/models.go
package wizardcontroller

import (
	"context"

	fileencoder "applicant-portal/internal/application/file-encoder"
	"applicant-portal/internal/models"
)

// Submitter is the part of the submission gateway the wizard needs.
type Submitter interface {
	Create(ctx context.Context, draft *models.Draft) (*models.SubmissionResult, error)
	Update(ctx context.Context, id string, draft *models.Draft) (*models.Ack, error)
}

// Outcome describes a successful submission.
type Outcome struct {
	ApplicationID     string
	ApplicationNumber string
	Message           string
	Updated           bool
}

// Selection is one file picked for one slot.
type Selection struct {
	Slot models.SlotName
	File fileencoder.File
}
