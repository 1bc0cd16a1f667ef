package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Notice  string `json:"notice,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeInvalidPrice       = "INVALID_PRICE"
	ErrCodeDeleteNotConfirmed = "DELETE_NOT_CONFIRMED"
	ErrCodeUnconfigured       = "UNCONFIGURED"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMissingField       = NewDomainError(ErrCodeMissingField, "Please fill out name and price")
	ErrInvalidPrice       = NewDomainError(ErrCodeInvalidPrice, "Price must be a non-negative number")
	ErrDeleteNotConfirmed = NewDomainError(ErrCodeDeleteNotConfirmed, "Delete must be confirmed")
	ErrUnconfigured       = NewDomainError(ErrCodeUnconfigured, "Remote store is not configured: connection credentials are missing")
	ErrStoreUnavailable   = NewDomainError(ErrCodeStoreUnavailable, "The menu store is temporarily unavailable, please try again")
)
