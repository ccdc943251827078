package errors

import (
	"fmt"
	"time"
)

// ErrorCode classifies application errors for transport mapping.
type ErrorCode string

const (
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	// Channel access
	ErrCodeAccessDenied   ErrorCode = "ACCESS_DENIED"
	ErrCodeUnknownChannel ErrorCode = "UNKNOWN_CHANNEL"

	// Auth / sessions
	ErrCodeInvalidCode      ErrorCode = "INVALID_PRODUCT_CODE"
	ErrCodeCodeUsed         ErrorCode = "PRODUCT_CODE_USED"
	ErrCodeMalformedSession ErrorCode = "MALFORMED_SESSION"

	// Document store
	ErrCodeStoreError ErrorCode = "STORE_ERROR"

	// Promotions
	ErrCodeSpinNotAllowed ErrorCode = "SPIN_NOT_ALLOWED"
)

// AppError is the typed error carried through services and handlers.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the common cases.

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason))
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason))
}

func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("Conflict with %s: %s", resource, reason)).
		WithDetail("resource", resource)
}

// NewAccessDeniedError reports a denied channel; surfaced as an overlay by
// the client, not treated as an internal failure.
func NewAccessDeniedError(channelID string) *AppError {
	return New(ErrCodeAccessDenied, "You do not have access to this channel").
		WithDetail("channel_id", channelID)
}

// NewUnknownChannelError covers channel ids with no registry entry. Unknown
// channels always fail closed.
func NewUnknownChannelError(channelID string) *AppError {
	return New(ErrCodeUnknownChannel, "Unknown channel").
		WithDetail("channel_id", channelID)
}

func NewStoreError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStoreError, fmt.Sprintf("Store operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewSpinNotAllowedError(remainingDays int) *AppError {
	return New(ErrCodeSpinNotAllowed, fmt.Sprintf("Next spin available in %d day(s)", remainingDays)).
		WithDetail("remaining_days", remainingDays)
}

func NewMalformedSessionError(err error) *AppError {
	return Wrap(err, ErrCodeMalformedSession, "Cached session record could not be parsed")
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
