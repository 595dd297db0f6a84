package models

import (
	"fmt"
	"sort"
)

// Personal detail field names, as sent on the wire.
const (
	FieldFullName       = "fullName"
	FieldEmail          = "email"
	FieldPhone          = "phone"
	FieldWhatsappNumber = "whatsappNumber"
	FieldPassportNumber = "passportNumber"
)

// Agreement flag names.
const (
	FlagTermsAccepted          = "termsAccepted"
	FlagPrivacyAccepted        = "privacyAccepted"
	FlagDataProcessingAccepted = "dataProcessingAccepted"
)

// PersonalDetails holds the plain-string applicant fields.
type PersonalDetails struct {
	FullName       string `json:"fullName" mapstructure:"full_name"`
	Email          string `json:"email" mapstructure:"email"`
	Phone          string `json:"phone" mapstructure:"phone"`
	WhatsappNumber string `json:"whatsappNumber,omitempty" mapstructure:"whatsapp_number"`
	PassportNumber string `json:"passportNumber" mapstructure:"passport_number"`
}

// Agreements holds the three consent flags required before submission.
type Agreements struct {
	TermsAccepted          bool `json:"termsAccepted" mapstructure:"terms_accepted"`
	PrivacyAccepted        bool `json:"privacyAccepted" mapstructure:"privacy_accepted"`
	DataProcessingAccepted bool `json:"dataProcessingAccepted" mapstructure:"data_processing_accepted"`
}

// Draft is the working state of one new or edited application.
type Draft struct {
	Personal    PersonalDetails
	Attachments map[SlotName]*Attachment
	// Stored and Removed are only populated in the edit flow.
	Stored     map[SlotName]StoredDocument
	Removed    map[SlotName]bool
	Agreements Agreements
}

// NewDraft returns an empty draft with initialized maps.
func NewDraft() *Draft {
	return &Draft{
		Attachments: make(map[SlotName]*Attachment),
		Stored:      make(map[SlotName]StoredDocument),
		Removed:     make(map[SlotName]bool),
	}
}

// Field returns a personal detail by wire name.
func (d *Draft) Field(name string) (string, error) {
	switch name {
	case FieldFullName:
		return d.Personal.FullName, nil
	case FieldEmail:
		return d.Personal.Email, nil
	case FieldPhone:
		return d.Personal.Phone, nil
	case FieldWhatsappNumber:
		return d.Personal.WhatsappNumber, nil
	case FieldPassportNumber:
		return d.Personal.PassportNumber, nil
	default:
		return "", fmt.Errorf("unknown field %q", name)
	}
}

// SetField assigns a personal detail by wire name.
func (d *Draft) SetField(name, value string) error {
	switch name {
	case FieldFullName:
		d.Personal.FullName = value
	case FieldEmail:
		d.Personal.Email = value
	case FieldPhone:
		d.Personal.Phone = value
	case FieldWhatsappNumber:
		d.Personal.WhatsappNumber = value
	case FieldPassportNumber:
		d.Personal.PassportNumber = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// Flag returns an agreement flag by name.
func (d *Draft) Flag(name string) (bool, error) {
	switch name {
	case FlagTermsAccepted:
		return d.Agreements.TermsAccepted, nil
	case FlagPrivacyAccepted:
		return d.Agreements.PrivacyAccepted, nil
	case FlagDataProcessingAccepted:
		return d.Agreements.DataProcessingAccepted, nil
	default:
		return false, fmt.Errorf("unknown flag %q", name)
	}
}

// SetFlag assigns an agreement flag by name.
func (d *Draft) SetFlag(name string, value bool) error {
	switch name {
	case FlagTermsAccepted:
		d.Agreements.TermsAccepted = value
	case FlagPrivacyAccepted:
		d.Agreements.PrivacyAccepted = value
	case FlagDataProcessingAccepted:
		d.Agreements.DataProcessingAccepted = value
	default:
		return fmt.Errorf("unknown flag %q", name)
	}
	return nil
}

// HasDocument reports whether the slot will hold a document after submission:
// either a new attachment, or a stored document that was not removed.
func (d *Draft) HasDocument(slot SlotName) bool {
	if d.Attachments[slot] != nil {
		return true
	}
	if _, ok := d.Stored[slot]; ok && !d.Removed[slot] {
		return true
	}
	return false
}

// Clone returns a deep copy. Attachments are copied by value.
func (d *Draft) Clone() *Draft {
	out := NewDraft()
	out.Personal = d.Personal
	out.Agreements = d.Agreements
	for k, v := range d.Attachments {
		if v == nil {
			continue
		}
		att := *v
		out.Attachments[k] = &att
	}
	for k, v := range d.Stored {
		out.Stored[k] = v
	}
	for k, v := range d.Removed {
		if v {
			out.Removed[k] = true
		}
	}
	return out
}

// ErrorMap maps a field or slot name to a human-readable message.
type ErrorMap map[string]string

// Has reports whether name has an error.
func (m ErrorMap) Has(name string) bool {
	_, ok := m[name]
	return ok
}

// IsEmpty reports whether there are no errors.
func (m ErrorMap) IsEmpty() bool {
	return len(m) == 0
}

// Clone copies the map; a nil map clones to an empty one.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Keys returns the error names sorted.
func (m ErrorMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
