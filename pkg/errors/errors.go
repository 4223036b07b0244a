package errors

import "fmt"

// Error codes returned in API responses and checked by callers.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidState       = "INVALID_STATE"
	CodeNotFound           = "NOT_FOUND"
	CodeStorage            = "STORAGE_ERROR"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRequestTimeout     = "REQUEST_TIMEOUT"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// ApplicationError represents a domain-specific error
type ApplicationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// HasCode reports whether err is an ApplicationError carrying the given code.
func HasCode(err error, code string) bool {
	appErr, ok := err.(*ApplicationError)
	return ok && appErr.Code == code
}

// Error constructors
func NewValidationError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeValidation,
		Message: message,
		Status:  400,
	}
}

// NewInvalidStateError signals an operation incompatible with the current
// aggregate state, e.g. appending a mutating event to a resolved flare.
func NewInvalidStateError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeInvalidState,
		Message: message,
		Status:  409,
	}
}

func NewNotFoundError(resource string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  404,
	}
}

// NewStorageError wraps a durability-layer failure. Storage errors are
// propagated unmodified, never silently swallowed.
func NewStorageError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeStorage,
		Message: message,
		Status:  500,
	}
}

func NewConflictError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeConflict,
		Message: message,
		Status:  409,
	}
}

func NewUnauthorizedError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  401,
	}
}

func NewInternalError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeInternal,
		Message: message,
		Status:  500,
	}
}

func NewRequestTimeoutError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeRequestTimeout,
		Message: message,
		Status:  408,
	}
}

func NewTooManyRequestsError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  429,
	}
}

func NewServiceUnavailableError(message string) *ApplicationError {
	return &ApplicationError{
		Code:    CodeServiceUnavailable,
		Message: message,
		Status:  503,
	}
}
