// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Attendance rule errors. These are the recoverable "rule says no"
	// outcomes of the attendance engine, kept distinct from store failures
	// so callers can tell a rejected action from a broken system.
	ErrAlreadyCheckedIn       = errors.New("already checked in")
	ErrOutOfRange             = errors.New("outside the school geofence")
	ErrTooEarly               = errors.New("before the allowed hour")
	ErrNotEligibleForCheckout = errors.New("record not eligible for checkout")
	ErrDuplicateTask          = errors.New("additional task already reported")
	ErrInvalidTimeWindow      = errors.New("invalid time window")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrInactiveUser = errors.New("user is not active")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrTimeout          = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "attendance", "user", "school"
	Op      string // Operation that failed, e.g., "CheckIn", "SaveConfig"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound       = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrUsernameTaken      = NewDomainError("user", "Create", ErrAlreadyExists, "username already taken")
	ErrInvalidUserRole    = NewDomainError("user", "Validate", ErrInvalidInput, "invalid user role")
	ErrUserInactive       = NewDomainError("user", "CheckStatus", ErrInactiveUser, "user account is deactivated")
	ErrInvalidCredentials = NewDomainError("user", "Authenticate", ErrUnauthorized, "invalid username or password")
)

// School config domain errors
var (
	ErrConfigNotFound = NewDomainError("school", "Load", ErrNotFound, "school config not found")
	ErrBadTimeWindow  = NewDomainError("school", "Validate", ErrInvalidTimeWindow, "check-in, check-out and end hours must be strictly increasing")
	ErrBadGeofence    = NewDomainError("school", "Validate", ErrValueOutOfRange, "geofence radius must be positive")
)

// Attendance domain errors
var (
	ErrRecordNotFound   = NewDomainError("attendance", "Find", ErrNotFound, "attendance record not found")
	ErrRecordExists     = NewDomainError("attendance", "Create", ErrAlreadyExists, "attendance record already exists for this day")
	ErrInvalidStatus    = NewDomainError("attendance", "Validate", ErrInvalidInput, "invalid attendance status")
	ErrInvalidRecordDay = NewDomainError("attendance", "Validate", ErrInvalidFormat, "invalid record date key")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrInvalidTimeWindow)
}

// IsRuleViolation checks if the error is a recoverable attendance rule
// violation that should be shown to the acting user as-is.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrAlreadyCheckedIn) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrTooEarly) ||
		errors.Is(err, ErrNotEligibleForCheckout) ||
		errors.Is(err, ErrDuplicateTask)
}

// IsStoreFailure checks if the error comes from the persistence layer rather
// than from a business rule.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTimeout)
}
