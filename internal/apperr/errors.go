// Package apperr defines the error kinds shared by the engine and the record API.
//
// Callers branch with errors.Is on the kind sentinels. An *Error also carries a
// message fit for showing to the student and, optionally, the underlying cause.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrNetwork       = errors.New("network unavailable")
	ErrServer        = errors.New("server error")
	ErrInvalidState  = errors.New("invalid state")
)

// Error is a kind plus a user-facing message.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Validation reports input rejected before or by the record store.
func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// Network wraps a transport failure.
func Network(cause error) *Error {
	return &Error{Kind: ErrNetwork, Message: "could not reach the server, check your connection and retry", Cause: cause}
}

// Server reports a non-success answer from the record store.
func Server(msg string) *Error {
	if msg == "" {
		msg = "the server could not complete the request"
	}
	return &Error{Kind: ErrServer, Message: msg}
}

// NotFound names the missing resource.
func NotFound(resource string) *Error {
	return &Error{Kind: ErrNotFound, Message: resource + " not found"}
}

// Conflict reports a concurrent modification.
func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// InvalidState reports an operation issued in a state that does not allow it.
func InvalidState(msg string) *Error {
	return &Error{Kind: ErrInvalidState, Message: msg}
}

// Message returns the user-facing text of err, falling back to err.Error().
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
