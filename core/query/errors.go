package query

import (
	"errors"
	"fmt"
)

// Error kinds returned by the parsers and compilers. Every failure is a *Error
// wrapping one of these, so callers can match with errors.Is.
var (
	ErrMalformedCondition = errors.New("malformed condition")
	ErrUnknownOperator    = errors.New("unknown operator")
	ErrFieldNotFilterable = errors.New("field cannot be filtered")
	ErrFieldNotOrderable  = errors.New("field cannot be ordered")
	ErrInvalidDateFormat  = errors.New("invalid date format")
	ErrInvalidPagination  = errors.New("invalid pagination")
	ErrOperatorNotAllowed = errors.New("operator not allowed")
	ErrInvalidReference   = errors.New("invalid reference")
	ErrMalformedOrder     = errors.New("malformed order")
)

// Error describes a rejected filter, order or pagination input.
type Error struct {
	Kind   error  // One of the Err* sentinels.
	Field  string // The offending field, when there is one.
	Input  string // The offending token or value.
	Reason string
}

func newError(kind error, field, input, reason string) *Error {
	return &Error{Kind: kind, Field: field, Input: input, Reason: reason}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" '%s'", e.Field)
	}
	if e.Input != "" {
		msg += fmt.Sprintf(" (input %q)", e.Input)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewFieldError builds an *Error for a field-level failure. Compilers outside
// this package use it so every rejection carries the same shape.
func NewFieldError(kind error, field, input, reason string) error {
	return newError(kind, field, input, reason)
}
