package errors

// ErrorHandler logs command failures uniformly and maps them to exit codes.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Exit codes returned by HandleCommandError.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitValidation    = 2
	ExitUnauthorized  = 3
	ExitNotEditable   = 4
	ExitNetworkFailed = 5
)

// HandleCommandError normalizes err, logs it and returns the process exit code.
func (h *ErrorHandler) HandleCommandError(command string, err error) int {
	if err == nil {
		return ExitOK
	}
	stdErr := Normalize(err)

	h.logger.Error("command failed", map[string]interface{}{
		"command":       command,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"statusCode":    stdErr.StatusCode,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})

	switch stdErr.Code {
	case ErrCodeFieldValidation, ErrCodeValidationRejected, ErrCodeFileTooLarge,
		ErrCodeUnsupportedType, ErrCodeInvalidPayload:
		return ExitValidation
	case ErrCodeUnauthorized:
		return ExitUnauthorized
	case ErrCodeNotEditable:
		return ExitNotEditable
	case ErrCodeNetworkFailure:
		return ExitNetworkFailed
	default:
		return ExitFailure
	}
}
