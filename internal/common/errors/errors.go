// Package errors provides the portal's standardized error taxonomy.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized portal error codes.
type ErrorCode string

// Local (recoverable) errors
const (
	ErrCodeFieldValidation  ErrorCode = "FIELD_VALIDATION_FAILED"
	ErrCodeFileTooLarge     ErrorCode = "FILE_TOO_LARGE"
	ErrCodeUnsupportedType  ErrorCode = "FILE_UNSUPPORTED_TYPE"
	ErrCodeFileReadFailed   ErrorCode = "FILE_READ_FAILED"
	ErrCodeSubmissionActive ErrorCode = "SUBMISSION_IN_PROGRESS"
	ErrCodeNotFinalStep     ErrorCode = "NOT_FINAL_STEP"
	ErrCodeStepOutOfRange   ErrorCode = "STEP_OUT_OF_RANGE"
)

// Gateway errors
const (
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeValidationRejected ErrorCode = "VALIDATION_REJECTED"
	ErrCodeNetworkFailure     ErrorCode = "NETWORK_FAILURE"
	ErrCodeNotEditable        ErrorCode = "NOT_EDITABLE"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeServerError        ErrorCode = "SERVER_ERROR"
	ErrCodeInvalidPayload     ErrorCode = "INVALID_PAYLOAD"
	ErrCodeDecodeFailed       ErrorCode = "RESPONSE_DECODE_FAILED"
)

// StandardError represents a structured portal error.
//
// Retryable marks errors the user may re-trigger by hand; nothing in the
// portal retries automatically.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	cause      error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code, so sentinel values work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewFieldValidationError wraps a failed step validation.
func NewFieldValidationError(step string, fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFieldValidation,
		Message:   "Please fix the highlighted fields",
		Details:   fmt.Sprintf("step: %s, fields: %s", step, strings.Join(fields, ",")),
		Retryable: false,
		Metadata:  map[string]interface{}{"step": step, "fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInProgressError is returned when a second submission is attempted.
func NewSubmissionInProgressError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionActive,
		Message:   "A submission is already in progress",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFinalStepError is returned when submit is called before the last step.
func NewNotFinalStepError(current, total int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFinalStep,
		Message:   "Submission is only possible from the final step",
		Details:   fmt.Sprintf("currentStep: %d, totalSteps: %d", current, total),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStepOutOfRangeError is returned for jumps outside [1, total].
func NewStepOutOfRangeError(step, total int) *StandardError {
	return &StandardError{
		Code:      ErrCodeStepOutOfRange,
		Message:   "Step does not exist",
		Details:   fmt.Sprintf("step: %d, totalSteps: %d", step, total),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError signals a missing, invalid or expired token.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:       ErrCodeUnauthorized,
		Message:    "Your session has expired, please log in again",
		Details:    details,
		Retryable:  false,
		StatusCode: 401,
		Timestamp:  time.Now().UTC(),
	}
}

// NewValidationRejectedError carries the server's message verbatim.
func NewValidationRejectedError(statusCode int, serverMessage string) *StandardError {
	return &StandardError{
		Code:       ErrCodeValidationRejected,
		Message:    serverMessage,
		Retryable:  false,
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC(),
	}
}

// NewNetworkFailureError wraps a transport-level failure; the request never completed.
func NewNetworkFailureError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkFailure,
		Message:   "Network error, please check your connection and try again",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotEditableError signals the server no longer accepts changes to the application.
func NewNotEditableError(applicationID, serverMessage string) *StandardError {
	msg := serverMessage
	if msg == "" {
		msg = "This application can no longer be edited"
	}
	return &StandardError{
		Code:      ErrCodeNotEditable,
		Message:   msg,
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError is returned for 404 responses.
func NewNotFoundError(resource string) *StandardError {
	return &StandardError{
		Code:       ErrCodeNotFound,
		Message:    "Resource not found",
		Details:    resource,
		Retryable:  false,
		StatusCode: 404,
		Timestamp:  time.Now().UTC(),
	}
}

// NewServerError is returned for 5xx responses.
func NewServerError(statusCode int, serverMessage string) *StandardError {
	msg := serverMessage
	if msg == "" {
		msg = "The server could not process the request"
	}
	return &StandardError{
		Code:       ErrCodeServerError,
		Message:    msg,
		Retryable:  true,
		StatusCode: statusCode,
		Timestamp:  time.Now().UTC(),
	}
}

// NewInvalidPayloadError is returned when an outgoing body fails its schema.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Submission payload is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecodeFailedError is returned when a response body cannot be parsed.
func NewDecodeFailedError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Unexpected response from server",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized       = &StandardError{Code: ErrCodeUnauthorized}
	ErrValidationRejected = &StandardError{Code: ErrCodeValidationRejected}
	ErrNetworkFailure     = &StandardError{Code: ErrCodeNetworkFailure}
	ErrNotEditable        = &StandardError{Code: ErrCodeNotEditable}
	ErrSubmissionActive   = &StandardError{Code: ErrCodeSubmissionActive}
)

// ==========================
// 3. Utility Functions
// ==========================

// CodeOf extracts the ErrorCode from any error chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsUnauthorized reports whether err requires the caller to re-authenticate.
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized
}

// GetErrorCategory groups codes the way the UI presents them.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeFieldValidation:
		return "FIELD_VALIDATION"
	case ErrCodeFileTooLarge, ErrCodeUnsupportedType, ErrCodeFileReadFailed:
		return "FILE_CONSTRAINT"
	case ErrCodeUnauthorized:
		return "AUTH"
	case ErrCodeNotEditable:
		return "NOT_EDITABLE"
	case ErrCodeValidationRejected, ErrCodeNetworkFailure, ErrCodeServerError,
		ErrCodeNotFound, ErrCodeDecodeFailed, ErrCodeInvalidPayload:
		return "GATEWAY"
	case ErrCodeSubmissionActive, ErrCodeNotFinalStep, ErrCodeStepOutOfRange:
		return "WIZARD"
	default:
		return "OTHER"
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}
