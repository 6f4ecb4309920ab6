package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Details carries one entry per
// violated rule for validation failures.
type Error struct {
	Code    ErrorCode
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if len(e.Details) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError reports every violated field rule at once.
func NewValidationError(details ...string) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: "validation failed",
		Details: details,
	}
}

// NewStorageError hides the storage cause behind a generic message.
func NewStorageError(err error) *Error {
	return WrapError(ErrCodeInternal, "operation failed", err)
}

// Common domain errors.
var (
	ErrUserNotFound        = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "task not found")
	ErrTaskNotAccessible   = NewError(ErrCodeNotFound, "task not found or not authorized")
	ErrTaskDeleteForbidden = NewError(ErrCodeForbidden, "only the task creator or an administrator may delete this task")
	ErrAssignForbidden     = NewError(ErrCodeForbidden, "not allowed to assign tasks to other users")
	ErrSessionNotFound     = NewError(ErrCodeNotFound, "session not found")
	ErrEmailTaken          = NewError(ErrCodeConflict, "email already registered")
	ErrUnknownUserRef      = NewError(ErrCodeInvalid, "referenced user does not exist")
	ErrInvalidCredentials  = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// AsDomainError reports whether err carries a domain classification.
func AsDomainError(err error) (*Error, bool) {
	var dErr *Error
	if errors.As(err, &dErr) && dErr != nil {
		return dErr, true
	}
	return nil, false
}

// PublicMessage returns the text that may be shown to a caller. Internal
// failures never expose their cause.
func PublicMessage(err error) string {
	dErr, ok := AsDomainError(err)
	if !ok || dErr.Code == ErrCodeInternal {
		return "operation failed"
	}
	return dErr.Message
}
