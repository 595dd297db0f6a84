// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"applicant-portal/internal/models"
)

// Flow names.
const (
	FlowNewApplication  = "new-application"
	FlowEditApplication = "edit-application"
)

const (
	applicationMaxSize = 2 * 1024 * 1024
	editMaxSize        = 5 * 1024 * 1024
)

func documentSlots() []Slot {
	return []Slot{
		{Name: models.SlotPassportFront, Label: "Passport (front page)", Required: true},
		{Name: models.SlotPassportBack, Label: "Passport (back page)", Required: true},
		{Name: models.SlotLaborVisaFront, Label: "Labor visa (front)", Required: true},
		{Name: models.SlotLaborVisaBack, Label: "Labor visa (back)"},
		{Name: models.SlotPhoto, Label: "Passport-size photo", Required: true},
		{Name: models.SlotAgreementPaper, Label: "Signed agreement paper", Required: true},
		{Name: models.SlotPoliceClearance, Label: "Police clearance certificate"},
		{Name: models.SlotMedicalReport, Label: "Medical report"},
	}
}

func documentSlotNames() []models.SlotName {
	slots := documentSlots()
	names := make([]models.SlotName, len(slots))
	for i, s := range slots {
		names[i] = s.Name
	}
	return names
}

func personalStep() Step {
	return Step{
		Kind:  StepPersonalDetails,
		Title: "Personal Details",
		Fields: []string{
			models.FieldFullName, models.FieldEmail, models.FieldPhone,
			models.FieldWhatsappNumber, models.FieldPassportNumber,
		},
	}
}

func agreementStep() Step {
	return Step{
		Kind:  StepAgreement,
		Title: "Agreement",
		Flags: []string{
			models.FlagTermsAccepted, models.FlagPrivacyAccepted, models.FlagDataProcessingAccepted,
		},
	}
}

var paymentSlot = Slot{Name: models.SlotPaymentProof, Label: "Payment proof", Required: true}

// NewApplication is the five-step flow used to create an application.
func NewApplication() *Registry {
	return &Registry{
		Name:        FlowNewApplication,
		Version:     "1",
		MaxFileSize: applicationMaxSize,
		Steps: []Step{
			personalStep(),
			{Kind: StepDocuments, Title: "Documents", Slots: documentSlotNames()},
			{Kind: StepPaymentProof, Title: "Payment Proof", Slots: []models.SlotName{models.SlotPaymentProof}},
			{Kind: StepReview, Title: "Review"},
			agreementStep(),
		},
		Slots: append(documentSlots(), paymentSlot),
	}
}

// EditApplication is the four-step flow used to edit an existing application.
// Payment proof shares the documents step.
func EditApplication() *Registry {
	return &Registry{
		Name:        FlowEditApplication,
		Version:     "1",
		MaxFileSize: editMaxSize,
		Steps: []Step{
			personalStep(),
			{Kind: StepDocuments, Title: "Documents", Slots: append(documentSlotNames(), models.SlotPaymentProof)},
			{Kind: StepReview, Title: "Review"},
			agreementStep(),
		},
		Slots: append(documentSlots(), paymentSlot),
	}
}

// Load reads a registry from a JSON file and validates it.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks the registry is internally consistent.
func (r *Registry) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("registry %q has no steps", r.Name)
	}
	if r.Steps[len(r.Steps)-1].Kind != StepAgreement {
		return fmt.Errorf("registry %q must end with the agreement step", r.Name)
	}
	known := make(map[models.SlotName]bool, len(r.Slots))
	for _, s := range r.Slots {
		if known[s.Name] {
			return fmt.Errorf("registry %q declares slot %q twice", r.Name, s.Name)
		}
		known[s.Name] = true
	}
	for i, step := range r.Steps {
		for _, name := range step.Slots {
			if !known[name] {
				return fmt.Errorf("step %d (%s) references unknown slot %q", i+1, step.Kind, name)
			}
		}
	}
	return nil
}

// WithMaxFileSize returns a copy of the registry using a different size ceiling.
func (r *Registry) WithMaxFileSize(n int64) *Registry {
	out := *r
	out.MaxFileSize = n
	return &out
}

// TotalSteps returns N.
func (r *Registry) TotalSteps() int {
	return len(r.Steps)
}

// Step returns the 1-based step.
func (r *Registry) Step(index int) (Step, bool) {
	if index < 1 || index > len(r.Steps) {
		return Step{}, false
	}
	return r.Steps[index-1], true
}

// Slot returns the definition for name, with the registry-wide defaults filled in.
func (r *Registry) Slot(name models.SlotName) (Slot, bool) {
	for _, s := range r.Slots {
		if s.Name != name {
			continue
		}
		if len(s.AcceptedTypes) == 0 {
			s.AcceptedTypes = DefaultAcceptedTypes
		}
		if s.MaxSize == 0 {
			s.MaxSize = r.MaxFileSize
		}
		return s, true
	}
	return Slot{}, false
}

// StepOf returns the 1-based index of the step holding slot, or 0.
func (r *Registry) StepOf(slot models.SlotName) int {
	for i, step := range r.Steps {
		for _, s := range step.Slots {
			if s == slot {
				return i + 1
			}
		}
	}
	return 0
}
