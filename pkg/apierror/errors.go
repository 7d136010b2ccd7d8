// Package apierror defines the uniform error envelope written on every failure path.
package apierror

import (
	"fmt"
	"net/http"
)

// Kind is the client-visible error category.
type Kind string

const (
	KindBadRequest          Kind = "bad_request"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindNotFound            Kind = "not_found"
	KindMethodNotAllowed    Kind = "method_not_allowed"
	KindConflict            Kind = "conflict"
	KindUnprocessableEntity Kind = "unprocessable_entity"
	KindInternal            Kind = "internal"
	KindUnavailable         Kind = "unavailable"
)

// Status returns the HTTP status code that belongs to the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindConflict:
		return http.StatusConflict
	case KindUnprocessableEntity:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Kinds lists every kind in status order.
func Kinds() []Kind {
	return []Kind{
		KindBadRequest, KindUnauthorized, KindForbidden, KindNotFound, KindMethodNotAllowed,
		KindConflict, KindUnprocessableEntity, KindInternal, KindUnavailable,
	}
}

// GenericInternalMessage is the only message a client ever sees for a 500.
const GenericInternalMessage = "An internal error occurred"

// Error is the body of every error response.
type Error struct {
	Kind    Kind           `json:"kind"`
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	// Reference correlates a redacted response with server-side logs.
	Reference string `json:"reference,omitempty"`
}

// Envelope wraps an Error for the wire.
type Envelope struct {
	Error Error `json:"error"`
}

func (e Error) String() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

// Builder provides a fluent API for building Error values.
type Builder struct {
	err Error
}

// New creates a Builder for the given kind and message.
func New(kind Kind, message string) *Builder {
	return &Builder{err: Error{Kind: kind, Status: kind.Status(), Message: message}}
}

// Messagef sets the message with formatting.
func (b *Builder) Messagef(format string, args ...any) *Builder {
	b.err.Message = fmt.Sprintf(format, args...)
	return b
}

// Detail adds structured detail.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.err.Details == nil {
		b.err.Details = make(map[string]any)
	}
	b.err.Details[key] = value
	return b
}

// Reference sets the log correlation reference.
func (b *Builder) Reference(ref string) *Builder {
	b.err.Reference = ref
	return b
}

// Build returns the constructed Error.
func (b *Builder) Build() Error {
	return b.err
}

// Common constructors

// BadRequest creates a 400 error.
func BadRequest(message string) Error {
	return New(KindBadRequest, message).Build()
}

// NotFound creates a 404 error.
func NotFound(message string) Error {
	if message == "" {
		message = "The requested resource was not found"
	}
	return New(KindNotFound, message).Build()
}

// MethodNotAllowed creates a 405 error.
func MethodNotAllowed(method string, allowed []string) Error {
	return New(KindMethodNotAllowed, "").
		Messagef("The %s method is not allowed for this resource", method).
		Detail("allowed", allowed).
		Build()
}

// Internal creates a 500 error with the generic message.
func Internal() Error {
	return New(KindInternal, GenericInternalMessage).Build()
}

// Unavailable creates a 503 error.
func Unavailable(message string) Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return New(KindUnavailable, message).Build()
}
