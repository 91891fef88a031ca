// Package errors provides structured error types for the kintree engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the editor, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Categories
//
// Codes fall into three user-facing categories plus internal failures:
//   - Validation: the request was rejected before any write (INVALID_*, MISSING_*, LOCKED, NOT_FOUND)
//   - Persistence: a store call failed; the cause is always wrapped
//   - Conflict: the request contradicts the current tree (SPOUSE_CONFLICT, PARENT_CONFLICT)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingName, "first name is required")
//	if errors.IsValidation(err) {
//	    // show the message next to the form field
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodePersistence, origErr, "create person in tree %s", treeID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput          Code = "INVALID_INPUT"
	ErrCodeInvalidRelationship   Code = "INVALID_RELATIONSHIP"
	ErrCodeDuplicateRelationship Code = "DUPLICATE_RELATIONSHIP"
	ErrCodeMissingName           Code = "MISSING_NAME"
	ErrCodeInvalidURL            Code = "INVALID_URL"
	ErrCodeLocked                Code = "LOCKED"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodePersonNotFound Code = "PERSON_NOT_FOUND"

	// Storage errors
	ErrCodePersistence Code = "PERSISTENCE_ERROR"

	// Consistency conflicts
	ErrCodeSpouseConflict Code = "SPOUSE_CONFLICT"
	ErrCodeParentConflict Code = "PARENT_CONFLICT"

	// Flow control
	ErrCodeCancelled Code = "CANCELLED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// =============================================================================
// Categories
// =============================================================================

var validationCodes = map[Code]bool{
	ErrCodeInvalidInput:          true,
	ErrCodeInvalidRelationship:   true,
	ErrCodeDuplicateRelationship: true,
	ErrCodeMissingName:           true,
	ErrCodeInvalidURL:            true,
	ErrCodeLocked:                true,
	ErrCodeNotFound:              true,
	ErrCodePersonNotFound:        true,
}

// IsValidation reports whether err was rejected before any write happened.
func IsValidation(err error) bool {
	return validationCodes[GetCode(err)]
}

// IsPersistence reports whether err came from the storage collaborator.
func IsPersistence(err error) bool {
	return Is(err, ErrCodePersistence)
}

// IsConflict reports whether err is a consistency conflict the user can resolve.
func IsConflict(err error) bool {
	code := GetCode(err)
	return code == ErrCodeSpouseConflict || code == ErrCodeParentConflict
}

// Persistence wraps a store failure. A nil cause yields nil so call sites can
// wrap unconditionally.
func Persistence(cause error, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return Wrap(ErrCodePersistence, cause, format, args...)
}
