package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same code and message, so that
// errors.Is matches a sentinel even when a cause or detail was attached.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of the sentinel e carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	return NewDomainErrorWithCause(e.Code, e.Message, err)
}

// Withf returns a copy of the sentinel e with a formatted detail as its cause.
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
)

// Registration errors
var (
	ErrInvalidSearchableEntity = NewDomainError(ErrCodeValidation, "invalid searchable entity")
	ErrInvalidSearchConfig     = NewDomainError(ErrCodeValidation, "invalid search config")
	ErrInvalidWherePath        = NewDomainError(ErrCodeValidation, "invalid where path")
	ErrInvalidPagination       = NewDomainError(ErrCodeValidation, "invalid pagination")
)

// Authorization errors
var (
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid token")
)

// Store errors
var (
	ErrStoreUnavailable = NewDomainError(ErrCodeUnavailable, "store unavailable")
)
