// Package sessionerr classifies the errors a rendering session can produce
// into the fixed kinds each component's propagation policy is keyed on.
package sessionerr

import "github.com/pkg/errors"

// Kind is the closed set of error categories a session can surface.
type Kind int

const (
	// Transport covers connect/read/write/timeout failures.
	Transport Kind = iota
	// Decode covers a malformed frame that could not be unmarshaled.
	Decode
	// Protocol covers a message that arrived in a forbidden session state.
	Protocol
	// NoWorkers covers a discovery window that closed with zero workers of
	// a required role.
	NoWorkers
	// SceneInvalid covers a primitive that failed scene validation. Nothing
	// raises it today: a negative radius is clamped to zero instead.
	SceneInvalid
)

func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Decode:
		return "decode"
	case Protocol:
		return "protocol"
	case NoWorkers:
		return "no_workers"
	case SceneInvalid:
		return "scene_invalid"
	default:
		return "unknown"
	}
}

// sessionError pairs a Kind with the underlying cause.
type sessionError struct {
	kind  Kind
	cause error
}

func (e *sessionError) Error() string {
	return e.kind.String() + ": " + e.cause.Error()
}

func (e *sessionError) Unwrap() error {
	return e.cause
}

// Wrap annotates err with kind, preserving a stack trace via pkg/errors.
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &sessionError{kind: kind, cause: errors.Wrap(err, message)}
}

// New builds a new error of kind with a message, carrying a stack trace.
func New(kind Kind, message string) error {
	return &sessionError{kind: kind, cause: errors.New(message)}
}

// KindOf extracts the Kind from err, if it (or something it wraps) is a
// sessionError. The second return value is false for plain errors.
func KindOf(err error) (Kind, bool) {
	var se *sessionError
	if errors.As(err, &se) {
		return se.kind, true
	}
	return 0, false
}

// Is reports whether err was classified as kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
