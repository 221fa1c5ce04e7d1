package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can react per kind.
type ErrorKind int

const (
	// ErrorKindNone is the zero value and marks the absence of an error.
	ErrorKindNone ErrorKind = iota

	// ErrorKindConfig covers configuration and logging setup failures.
	ErrorKindConfig

	// ErrorKindProbe covers probe execution and output translation failures.
	ErrorKindProbe

	// ErrorKindStorage covers attempt counter read and write failures.
	ErrorKindStorage

	// ErrorKindNotification covers message composition and delivery failures.
	ErrorKindNotification
)

// String returns the lowercase name used in logs and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindConfig:
		return "config"
	case ErrorKindProbe:
		return "probe"
	case ErrorKindStorage:
		return "storage"
	case ErrorKindNotification:
		return "notification"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// AllErrorKinds lists the non-zero kinds.
var AllErrorKinds = []ErrorKind{ErrorKindConfig, ErrorKindProbe, ErrorKindStorage, ErrorKindNotification}

// Error is a classified failure carrying its cause.
type Error struct {
	Kind ErrorKind

	// Op names the operation that failed, e.g. "read counter".
	Op string

	Err error
}

// NewError wraps err with a kind and operation name.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified non-nil errors report ErrorKindNone.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindNone
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
