package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// SlotName identifies one document position in a draft, e.g. "passport_front".
type SlotName string

// Known document slots.
const (
	SlotPassportFront   SlotName = "passport_front"
	SlotPassportBack    SlotName = "passport_back"
	SlotLaborVisaFront  SlotName = "labor_visa_front"
	SlotLaborVisaBack   SlotName = "labor_visa_back"
	SlotPhoto           SlotName = "photo"
	SlotAgreementPaper  SlotName = "agreement_paper"
	SlotPoliceClearance SlotName = "police_clearance"
	SlotMedicalReport   SlotName = "medical_report"
	SlotPaymentProof    SlotName = "payment_proof"
)

// Attachment is a single encoded file held by a draft slot.
type Attachment struct {
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	MimeType       string `json:"type"`
	EncodedContent string `json:"base64"`
}

// DataURL builds "data:<mime>;base64,<payload>".
func DataURL(mimeType string, raw []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// ParseDataURL splits a base64 data URL into its MIME type and decoded bytes.
func ParseDataURL(dataURL string) (string, []byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	header, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found {
		return "", nil, fmt.Errorf("data URL has no payload separator")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL payload: %w", err)
	}
	return mimeType, raw, nil
}

// Bytes decodes the attachment's content back to the original file bytes.
func (a *Attachment) Bytes() ([]byte, error) {
	_, raw, err := ParseDataURL(a.EncodedContent)
	return raw, err
}

// AttachmentFromDataURL adapts the bare data-URL string shape.
func AttachmentFromDataURL(name, dataURL string) (*Attachment, error) {
	mimeType, raw, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	return &Attachment{
		Name:           name,
		Size:           int64(len(raw)),
		MimeType:       mimeType,
		EncodedContent: dataURL,
	}, nil
}

// AttachmentFromLegacy adapts the {base64, name, size, type} object shape.
// The base64 member may be a full data URL or a bare payload.
func AttachmentFromLegacy(obj map[string]interface{}) (*Attachment, error) {
	encoded, _ := obj["base64"].(string)
	if encoded == "" {
		return nil, fmt.Errorf("legacy attachment has no base64 content")
	}
	name, _ := obj["name"].(string)
	mimeType, _ := obj["type"].(string)

	if !strings.HasPrefix(encoded, "data:") {
		if mimeType == "" {
			return nil, fmt.Errorf("legacy attachment %q has bare payload and no type", name)
		}
		encoded = "data:" + mimeType + ";base64," + encoded
	}

	att, err := AttachmentFromDataURL(name, encoded)
	if err != nil {
		return nil, err
	}
	if mimeType != "" {
		att.MimeType = mimeType
	}
	switch size := obj["size"].(type) {
	case float64:
		att.Size = int64(size)
	case int64:
		att.Size = size
	case int:
		att.Size = int64(size)
	}
	return att, nil
}

// StoredDocument describes a document the server already holds for an application.
type StoredDocument struct {
	Slot     SlotName `json:"docType"`
	Name     string   `json:"name,omitempty"`
	MimeType string   `json:"type,omitempty"`
	Size     int64    `json:"size,omitempty"`
}

// Document is a downloaded document blob.
type Document struct {
	Slot        SlotName
	FileName    string
	ContentType string
	Content     []byte
	// Pages is set for readable PDFs, 0 otherwise.
	Pages int
}
