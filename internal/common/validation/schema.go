// Package validation checks JSON documents against JSON schemas.
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

var (
	schemaCache   = make(map[string]*gojsonschema.Schema)
	schemaCacheMu sync.RWMutex
)

func compile(schemaJSON string) (*gojsonschema.Schema, error) {
	schemaCacheMu.RLock()
	s, ok := schemaCache[schemaJSON]
	schemaCacheMu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	schemaCacheMu.Lock()
	schemaCache[schemaJSON] = s
	schemaCacheMu.Unlock()
	return s, nil
}

// ValidateDocument validates doc (any JSON-marshalable Go value) against schemaJSON.
func ValidateDocument(schemaJSON string, doc interface{}) (*ValidationResult, error) {
	schema, err := compile(schemaJSON)
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}
