// Package domainerrors defines the coded error taxonomy shared by services and
// transports. Stores return sentinel facts; services translate them into one of
// these codes so callers can branch on the kind of failure.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of failure. Codes double as the machine-readable
// "error" field of HTTP error bodies.
type Code string

const (
	// CodeDuplicateID: the write would collide with an existing key. Permanent.
	CodeDuplicateID Code = "duplicate_id"
	// CodeNotFound: the referenced id does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: the caller lacks the principal role the operation needs.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidState: the operation is not permitted from the record's current state.
	CodeInvalidState Code = "invalid_state"
	// CodeInvalidStatusValue: a requested status lies outside the defined enum.
	CodeInvalidStatusValue Code = "invalid_status_value"

	CodeUnauthenticated Code = "unauthenticated"
	CodeBadRequest      Code = "bad_request"
	CodeValidation      Code = "validation_error"
	CodeInvalidInput    Code = "invalid_input"
	CodeTimeout         Code = "timeout"
	CodeInternal        Code = "internal_error"
)

// Error is a coded domain error. Err, when set, is the wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether the outermost coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when err
// carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
