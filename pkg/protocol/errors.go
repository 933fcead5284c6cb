package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies command failures.
type Kind int

const (
	// HostError is anything the host reports that has no finer kind.
	HostError Kind = iota
	// InvalidArgument is a malformed selector, bad enum literal, wrong
	// matrix shape or empty required list. Raised before any mutation.
	InvalidArgument
	// AmbiguousSelector means id/name did not resolve to exactly one object.
	AmbiguousSelector
	// GeometryPrecondition marks degenerate geometry the host could not
	// handle with its documented fallbacks.
	GeometryPrecondition
	// PartialBatchFailure means a batch stopped partway through phase 2.
	PartialBatchFailure
)

var kindNames = map[Kind]string{
	HostError:            "HostError",
	InvalidArgument:      "InvalidArgument",
	AmbiguousSelector:    "AmbiguousSelector",
	GeometryPrecondition: "GeometryPrecondition",
	PartialBatchFailure:  "PartialBatchFailure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of String. Unknown names map to HostError.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return HostError
}

// Error is a structured command failure.
type Error struct {
	Kind    Kind
	Message string

	// Set for PartialBatchFailure.
	Completed   int
	FailedIndex int
}

func (e *Error) Error() string {
	return e.Message
}

// Invalidf returns an InvalidArgument error.
func Invalidf(format string, args ...any) error {
	return &Error{Kind: InvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Ambiguousf returns an AmbiguousSelector error.
func Ambiguousf(format string, args ...any) error {
	return &Error{Kind: AmbiguousSelector, Message: fmt.Sprintf(format, args...)}
}

// Geometryf returns a GeometryPrecondition error.
func Geometryf(format string, args ...any) error {
	return &Error{Kind: GeometryPrecondition, Message: fmt.Sprintf(format, args...)}
}

// HostErrorf returns a HostError.
func HostErrorf(format string, args ...any) error {
	return &Error{Kind: HostError, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, or HostError when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return HostError
}

// Message returns the innermost structured message of err, or err.Error().
// Host messages travel unmodified through wrapping.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
