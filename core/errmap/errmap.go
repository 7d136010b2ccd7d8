// Package errmap translates errors into the client-visible error envelope.
//
// Map is pure: it never logs and never reads global state. Anything it does
// not recognise becomes a 500 with the generic message, so internal error
// text cannot reach a client by accident.
package errmap

import (
	"context"
	"errors"
	"net/http"

	"github.com/artpar/wildgate/core/codec"
	"github.com/artpar/wildgate/core/route"
	"github.com/artpar/wildgate/core/validation"
	"github.com/artpar/wildgate/domain/failure"
	"github.com/artpar/wildgate/pkg/apierror"
)

var kinds = map[failure.Kind]apierror.Kind{
	failure.Invalid:          apierror.KindBadRequest,
	failure.Unauthenticated:  apierror.KindUnauthorized,
	failure.PermissionDenied: apierror.KindForbidden,
	failure.NotFound:         apierror.KindNotFound,
	failure.Conflict:         apierror.KindConflict,
	failure.Unprocessable:    apierror.KindUnprocessableEntity,
	failure.Unavailable:      apierror.KindUnavailable,
}

// Map returns the status and body for err. A nil error maps to 500 since a
// caller that asks has already decided the request failed.
func Map(err error) (int, apierror.Error) {
	e := build(err)
	return e.Status, e
}

// Redacted reports whether the mapping hides the error text from the client.
func Redacted(status int) bool {
	return status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable
}

func build(err error) apierror.Error {
	var (
		mna      *route.MethodNotAllowedError
		decode   *codec.DecodeError
		rejected *validation.RejectedError
		encode   *codec.EncodeError
		domain   *failure.Error
	)

	switch {
	case err == nil:
		return apierror.Internal()
	case errors.As(err, &rejected):
		return apierror.New(apierror.KindBadRequest, "The request does not match the schema").
			Detail("violations", rejected.Violations).
			Build()
	case errors.As(err, &decode):
		b := apierror.New(apierror.KindBadRequest, "The request body is not valid JSON for this operation")
		for k, v := range decode.Details() {
			b.Detail(k, v)
		}
		if decode.Msg != "" {
			b.Detail("reason", decode.Msg)
		}
		return b.Build()
	case errors.As(err, &encode):
		return apierror.Internal()
	case errors.As(err, &mna):
		return apierror.MethodNotAllowed(mna.Method, mna.Allowed)
	case errors.Is(err, route.ErrNotFound):
		return apierror.NotFound("")
	case errors.As(err, &domain):
		return fromFailure(domain)
	case errors.Is(err, context.DeadlineExceeded):
		return apierror.Unavailable("The request timed out")
	case errors.Is(err, context.Canceled):
		return apierror.Unavailable("The request was cancelled")
	}
	return apierror.Internal()
}

func fromFailure(f *failure.Error) apierror.Error {
	kind, ok := kinds[f.Kind]
	if !ok {
		// Internal and anything newer than this table.
		return apierror.Internal()
	}

	// A domain failure caused by a timeout is still a timeout.
	if errors.Is(f.Err, context.DeadlineExceeded) && kind != apierror.KindUnavailable {
		return apierror.Unavailable("The request timed out")
	}

	b := apierror.New(kind, f.Message)
	if f.Message == "" {
		b.Messagef("%s", http.StatusText(kind.Status()))
	}
	for k, v := range f.Detail {
		b.Detail(k, v)
	}
	return b.Build()
}
