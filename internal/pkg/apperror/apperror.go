// Package apperror defines the failure kinds the checkout flow translates
// every lower-level error into before it reaches a user.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure
type Kind string

const (
	KindValidation       Kind = "validation"
	KindConfiguration    Kind = "configuration"
	KindMalformedPayload Kind = "malformed_payload"
	KindProvider         Kind = "provider"
	KindTransport        Kind = "transport"
	KindPersistenceParse Kind = "persistence_parse"
	KindUnknown          Kind = "unknown"
)

// Error is a classified failure. Message is operator-facing and is never
// shown verbatim to end users.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and message, so sentinels like
// ErrEmptyCart work with errors.Is after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || e.Message == t.Message)
}

// ErrEmptyCart is returned when checkout is attempted with nothing in the cart
var ErrEmptyCart = &Error{Kind: KindValidation, Message: "EmptyCart"}

// New creates a classified error
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap classifies err under kind
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf classifies err under kind with a formatted message
func Wrapf(kind Kind, op string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Retryable reports whether a user may try the same action again
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindProvider, KindTransport, KindConfiguration, KindUnknown:
		return true
	}
	return false
}
