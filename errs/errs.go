// Package errs defines the error kinds surfaced by the API.
package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	Unauthenticated   Kind = "Unauthenticated"
	Forbidden         Kind = "Forbidden"
	NotFound          Kind = "NotFound"
	InvalidInput      Kind = "InvalidInput"
	InvalidState      Kind = "InvalidState"
	InvalidOperation  Kind = "InvalidOperation"
	AlreadyDone       Kind = "AlreadyDone"
	AlreadyAssigned   Kind = "AlreadyAssigned"
	PaymentIncomplete Kind = "PaymentIncomplete"
	RateLimited       Kind = "RateLimited"
	UpstreamFailure   Kind = "UpstreamFailure"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and message to err. A nil err yields nil.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Upstream marks a store or provider failure.
func Upstream(err error, message string) error {
	return Wrap(err, UpstreamFailure, message)
}

// KindOf returns the kind of the first *Error in err's chain; anything else
// is an upstream failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UpstreamFailure
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}
