// pkg/registry/schema.go
package registry

import "applicant-portal/internal/models"

// StepKind selects which validation rules apply to a step.
type StepKind string

const (
	StepPersonalDetails StepKind = "personal_details"
	StepDocuments       StepKind = "documents"
	StepPaymentProof    StepKind = "payment_proof"
	StepReview          StepKind = "review"
	StepAgreement       StepKind = "agreement"
)

// Accepted upload formats.
var (
	DefaultAcceptedTypes      = []string{"application/pdf", "image/jpeg", "image/png"}
	DefaultAcceptedExtensions = []string{".pdf", ".jpg", ".jpeg", ".png"}
)

// Slot describes one document slot of the wizard.
type Slot struct {
	Name          models.SlotName `json:"name"`
	Label         string          `json:"label"`
	Required      bool            `json:"required"`
	AcceptedTypes []string        `json:"acceptedTypes,omitempty"`
	MaxSize       int64           `json:"maxSize,omitempty"`
}

// Step is one screen of the wizard: the fields, slots and flags it gates on.
type Step struct {
	Kind   StepKind          `json:"kind"`
	Title  string            `json:"title"`
	Fields []string          `json:"fields,omitempty"`
	Slots  []models.SlotName `json:"slots,omitempty"`
	Flags  []string          `json:"flags,omitempty"`
}

// Registry is the ordered step list plus the slot definitions it references.
type Registry struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	MaxFileSize int64  `json:"maxFileSize"`
	Steps       []Step `json:"steps"`
	Slots       []Slot `json:"slots"`
}
