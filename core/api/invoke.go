package api

import (
	"context"
	"fmt"

	"github.com/artpar/wildgate/core/codec"
	"github.com/artpar/wildgate/core/registry"
	"github.com/artpar/wildgate/core/route"
	"github.com/artpar/wildgate/core/validation"
)

// ResponseMismatchError reports an encoded response that does not match its
// own schema. It maps to a redacted 500.
type ResponseMismatchError struct {
	Operation  string
	Violations []validation.Violation
}

func (e *ResponseMismatchError) Error() string {
	return fmt.Sprintf("%s: response does not match its schema: %v",
		e.Operation, (&validation.RejectedError{Violations: e.Violations}).Error())
}

func newInvoker[Req, Resp any](b *Builder, desc registry.OperationDescriptor, fn Handler[Req, Resp]) route.Invoker {
	strict := b.strict || desc.Strict
	in := validation.Options{Strict: strict, Validator: b.validate}
	out := validation.Options{Validator: b.validate}
	status := desc.SuccessStatus()
	respNode := desc.Responses[status]
	outbound := b.outbound

	return func(ctx context.Context, input route.Input) (route.Output, error) {
		var outcome validation.Outcome
		if desc.Body != nil {
			tree, err := codec.Parse(input.Body)
			if err != nil {
				return route.Output{}, err
			}
			if tree == nil {
				outcome.Violations = append(outcome.Violations, validation.Violation{
					Path:     "body",
					Expected: desc.Body.Describe(),
					Actual:   "missing",
					Message:  "request body is required",
				})
			} else {
				outcome.Merge(validation.Validate(tree, desc.Body, b.defs, in))
			}
		}
		outcome.Merge(validation.Params(desc.Params, input.Path, input.Query, in))
		if err := outcome.Err(); err != nil {
			return route.Output{}, err
		}

		var req Req
		if desc.Body != nil {
			if err := codec.Decode(input.Body, &req, strict); err != nil {
				return route.Output{}, err
			}
		}
		if err := codec.BindParams(&req, desc.Params, outcome.Params); err != nil {
			return route.Output{}, err
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return route.Output{}, err
		}
		if respNode == nil {
			return route.Output{Status: status}, nil
		}

		data, err := codec.Encode(resp)
		if err != nil {
			return route.Output{}, fmt.Errorf("%s: %w", desc.ID, err)
		}
		if outbound {
			tree, err := codec.Parse(data)
			if err != nil {
				return route.Output{}, fmt.Errorf("%s: reparse response: %w", desc.ID, err)
			}
			if o := validation.Validate(tree, respNode, b.defs, out); !o.Accepted() {
				return route.Output{}, &ResponseMismatchError{Operation: desc.ID, Violations: o.Violations}
			}
		}
		return route.Output{Status: status, Body: data}, nil
	}
}
