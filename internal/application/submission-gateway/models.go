// internal/application/submission-gateway/models.go
package submissiongateway

import "applicant-portal/internal/models"

// CreatePayload is the body of POST /applications.
type CreatePayload struct {
	models.PersonalDetails
	models.Agreements
	Documents map[models.SlotName]*models.Attachment `json:"documents"`
}

// UpdatePayload is the body of PUT /applications/:id. Documents holds only
// replaced slots (new content) and removed slots (null); stored documents
// left untouched are omitted so the server keeps them.
type UpdatePayload struct {
	models.PersonalDetails
	models.Agreements
	Documents map[models.SlotName]*models.Attachment `json:"documents,omitempty"`
}

const attachmentSchema = `{
	"type": "object",
	"required": ["name", "size", "type", "base64"],
	"properties": {
		"name":   {"type": "string", "minLength": 1},
		"size":   {"type": "integer", "minimum": 0},
		"type":   {"type": "string", "enum": ["application/pdf", "image/jpeg", "image/png"]},
		"base64": {"type": "string", "pattern": "^data:[^;,]+;base64,"}
	}
}`

const createSchema = `{
	"type": "object",
	"required": ["fullName", "email", "phone", "passportNumber", "termsAccepted", "privacyAccepted", "dataProcessingAccepted", "documents"],
	"properties": {
		"fullName":       {"type": "string", "minLength": 1},
		"email":          {"type": "string", "minLength": 3},
		"phone":          {"type": "string", "minLength": 1},
		"whatsappNumber": {"type": "string"},
		"passportNumber": {"type": "string", "minLength": 1},
		"termsAccepted":          {"const": true},
		"privacyAccepted":        {"const": true},
		"dataProcessingAccepted": {"const": true},
		"documents": {
			"type": "object",
			"additionalProperties": ` + attachmentSchema + `
		}
	}
}`

const updateSchema = `{
	"type": "object",
	"required": ["fullName", "email", "phone", "passportNumber"],
	"properties": {
		"fullName":       {"type": "string", "minLength": 1},
		"email":          {"type": "string", "minLength": 3},
		"phone":          {"type": "string", "minLength": 1},
		"passportNumber": {"type": "string", "minLength": 1},
		"documents": {
			"type": "object",
			"additionalProperties": {"oneOf": [{"type": "null"}, ` + attachmentSchema + `]}
		}
	}
}`
