// Package errors defines the validation error kinds shared by every analysis stage.
//
// Each stage validates its inputs at the boundary and returns either a complete
// result or an *Error. The error unwraps to one of the sentinel values below, so
// callers check the kind with errors.Is:
//
//	if errors.Is(err, apperrors.ErrInvalidInputValue) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind string

const (
	// KindInvalidInputType means an argument has the wrong shape (e.g. a nil glossary,
	// a YAML scalar where a mapping was expected).
	KindInvalidInputType Kind = "invalid_input_type"

	// KindInvalidInputValue means an argument has the right shape but an unusable
	// value (empty required string, min length below 1).
	KindInvalidInputValue Kind = "invalid_input_value"

	// KindMalformedInput means structured input is internally inconsistent
	// (e.g. a glossary term whose value is not a phrase list).
	KindMalformedInput Kind = "malformed_input"
)

// Sentinel errors, one per Kind.
var (
	ErrInvalidInputType  = errors.New("invalid input type")
	ErrInvalidInputValue = errors.New("invalid input value")
	ErrMalformedInput    = errors.New("malformed input")
)

// Error is a validation failure raised by a stage.
type Error struct {
	Kind Kind
	Op   string // stage or function that rejected the input
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap returns the sentinel matching the error kind.
func (e *Error) Unwrap() error {
	switch e.Kind {
	case KindInvalidInputType:
		return ErrInvalidInputType
	case KindInvalidInputValue:
		return ErrInvalidInputValue
	case KindMalformedInput:
		return ErrMalformedInput
	default:
		return nil
	}
}

// InvalidType builds a KindInvalidInputType error.
func InvalidType(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInputType, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InvalidValue builds a KindInvalidInputValue error.
func InvalidValue(op, format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidInputValue, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Malformed builds a KindMalformedInput error.
func Malformed(op, format string, args ...interface{}) error {
	return &Error{Kind: KindMalformedInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
