// Package failure classifies the errors raised by the generation clients and
// the creation form so callers can decide how to report them.
package failure

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure.
type Kind int

const (
	// NetworkFailure is a transport error or non-2xx response from an external API.
	NetworkFailure Kind = iota + 1
	// MalformedResponse is a response missing fields the caller needs.
	MalformedResponse
	// ValidationFailure is bad or missing user input, detected before any network call.
	ValidationFailure
	// DecodeFailure is a binary payload that could not be decoded.
	DecodeFailure
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case MalformedResponse:
		return "malformed response"
	case ValidationFailure:
		return "validation failure"
	case DecodeFailure:
		return "decode failure"
	default:
		return "unknown failure"
	}
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error wrapping err.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf returns a classified error with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of the first classified error in err's chain,
// or 0 if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// IsKind reports whether err's chain contains a failure of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
