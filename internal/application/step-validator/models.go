// internal/application/step-validator/models.go
package stepvalidator

import "applicant-portal/internal/models"

// Messages shown next to the offending field.
const (
	MsgFullNameRequired       = "Full name is required"
	MsgEmailRequired          = "Email is required"
	MsgEmailInvalid           = "Please enter a valid email address"
	MsgPhoneRequired          = "Phone number is required"
	MsgPassportNumberRequired = "Passport number is required"

	MsgTermsRequired          = "You must accept the terms and conditions"
	MsgPrivacyRequired        = "You must accept the privacy policy"
	MsgDataProcessingRequired = "You must consent to data processing"
)

var requiredFields = []struct {
	name    string
	message string
}{
	{models.FieldFullName, MsgFullNameRequired},
	{models.FieldEmail, MsgEmailRequired},
	{models.FieldPhone, MsgPhoneRequired},
	{models.FieldPassportNumber, MsgPassportNumberRequired},
}

var flagMessages = map[string]string{
	models.FlagTermsAccepted:          MsgTermsRequired,
	models.FlagPrivacyAccepted:        MsgPrivacyRequired,
	models.FlagDataProcessingAccepted: MsgDataProcessingRequired,
}
