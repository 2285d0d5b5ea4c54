// Package apperr defines the error kinds surfaced by the review and
// stewardship services. Every failure carries a message specific enough to
// show to the user as-is.
package apperr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindForbidden
	// KindEditWindowExpired is a time-based forbidden case: the caller is the
	// right person but is too late.
	KindEditWindowExpired
	KindNotAuthorized
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindEditWindowExpired:
		return "edit_window_expired"
	case KindNotAuthorized:
		return "not_authorized"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and a user-facing message to a lower level error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error        { return New(KindValidation, message) }
func Forbidden(message string) *Error         { return New(KindForbidden, message) }
func EditWindowExpired(message string) *Error { return New(KindEditWindowExpired, message) }
func NotAuthorized(message string) *Error     { return New(KindNotAuthorized, message) }
func NotFound(message string) *Error          { return New(KindNotFound, message) }

func Internal(err error, message string) *Error {
	return Wrap(err, KindInternal, message)
}

// KindOf reports the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Message returns the user-facing message of the first *Error in err's chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
