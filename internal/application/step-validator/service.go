// internal/application/step-validator/service.go
package stepvalidator

import (
	"fmt"
	"regexp"
	"strings"

	"applicant-portal/internal/models"
	"applicant-portal/pkg/registry"
)

// Matches x@y.z anywhere in the value; not anchored.
var emailRegex = regexp.MustCompile(`\S+@\S+\.\S+`)

// Validate maps the draft to the errors of one step. It never mutates the
// draft and returns the same map for the same draft.
func Validate(step registry.Step, reg *registry.Registry, draft *models.Draft) models.ErrorMap {
	errs := models.ErrorMap{}
	if draft == nil {
		draft = models.NewDraft()
	}

	switch step.Kind {
	case registry.StepPersonalDetails:
		validatePersonal(step, draft, errs)
	case registry.StepDocuments, registry.StepPaymentProof:
		validateSlots(step, reg, draft, errs)
	case registry.StepAgreement:
		validateAgreements(step, draft, errs)
	case registry.StepReview:
		// nothing to check
	}
	return errs
}

// ValidateAll merges the errors of every step of the registry.
func ValidateAll(reg *registry.Registry, draft *models.Draft) models.ErrorMap {
	all := models.ErrorMap{}
	for _, step := range reg.Steps {
		for k, v := range Validate(step, reg, draft) {
			all[k] = v
		}
	}
	return all
}

// FirstInvalidStep returns the 1-based index of the first step with errors, or 0.
func FirstInvalidStep(reg *registry.Registry, draft *models.Draft) int {
	for i, step := range reg.Steps {
		if !Validate(step, reg, draft).IsEmpty() {
			return i + 1
		}
	}
	return 0
}

func validatePersonal(step registry.Step, draft *models.Draft, errs models.ErrorMap) {
	fields := step.Fields
	for _, rf := range requiredFields {
		if len(fields) > 0 && !containsString(fields, rf.name) {
			continue
		}
		value, _ := draft.Field(rf.name)
		if strings.TrimSpace(value) == "" {
			errs[rf.name] = rf.message
			continue
		}
		if rf.name == models.FieldEmail && !emailRegex.MatchString(value) {
			errs[rf.name] = MsgEmailInvalid
		}
	}
}

func validateSlots(step registry.Step, reg *registry.Registry, draft *models.Draft, errs models.ErrorMap) {
	for _, name := range step.Slots {
		slot, ok := reg.Slot(name)
		if !ok || !slot.Required {
			continue
		}
		if !draft.HasDocument(name) {
			errs[string(name)] = fmt.Sprintf("%s is required", slot.Label)
		}
	}
}

func validateAgreements(step registry.Step, draft *models.Draft, errs models.ErrorMap) {
	flags := step.Flags
	if len(flags) == 0 {
		flags = []string{models.FlagTermsAccepted, models.FlagPrivacyAccepted, models.FlagDataProcessingAccepted}
	}
	for _, name := range flags {
		accepted, err := draft.Flag(name)
		if err != nil || !accepted {
			msg, ok := flagMessages[name]
			if !ok {
				msg = fmt.Sprintf("You must accept %s", name)
			}
			errs[name] = msg
		}
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
