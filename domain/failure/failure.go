// Package failure provides the error values the domain layer returns to the API boundary.
// A failure carries a Kind that the boundary translates into an HTTP status; the message is
// meant for clients unless the kind is Internal.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	Invalid          Kind = "invalid"
	Unauthenticated  Kind = "unauthenticated"
	PermissionDenied Kind = "permission_denied"
	NotFound         Kind = "not_found"
	Conflict         Kind = "conflict"
	Unprocessable    Kind = "unprocessable"
	Unavailable      Kind = "unavailable"
	Internal         Kind = "internal"
)

// Error is a domain failure (value type).
type Error struct {
	Kind    Kind
	Message string
	// Detail is optional structured data safe to show to clients.
	Detail map[string]any
	// Err is the underlying cause. It is never shown to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With returns a copy of e with key set in Detail.
func (e *Error) With(key string, value any) *Error {
	cp := *e
	cp.Detail = make(map[string]any, len(e.Detail)+1)
	for k, v := range e.Detail {
		cp.Detail[k] = v
	}
	cp.Detail[key] = value
	return &cp
}

// New creates a failure of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a failure of the given kind around a cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var f *Error
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return "", false
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
