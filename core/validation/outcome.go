// Package validation checks decoded payloads and request parameters against schema nodes.
// Validation never stops at the first problem: an Outcome carries every violation found
// in one pass so a client can fix a request in one round trip.
package validation

import (
	"fmt"
	"strings"
)

// Violation is one way a value failed its schema.
type Violation struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Message  string `json:"message"`
}

func (v Violation) Error() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Outcome is the result of validating one request or response.
type Outcome struct {
	Violations []Violation
	// Params holds coerced parameter values keyed by schema.Param.Key.
	Params map[string]any
}

// Accepted reports whether no violation was found.
func (o Outcome) Accepted() bool {
	return len(o.Violations) == 0
}

// Merge appends the violations and parameters of other.
func (o *Outcome) Merge(other Outcome) {
	o.Violations = append(o.Violations, other.Violations...)
	for k, v := range other.Params {
		if o.Params == nil {
			o.Params = make(map[string]any, len(other.Params))
		}
		o.Params[k] = v
	}
}

// Err returns nil when accepted, otherwise a *RejectedError.
func (o Outcome) Err() error {
	if o.Accepted() {
		return nil
	}
	return &RejectedError{Violations: o.Violations}
}

func (o *Outcome) add(path, expected, actual, message string) {
	o.Violations = append(o.Violations, Violation{
		Path:     path,
		Expected: expected,
		Actual:   actual,
		Message:  message,
	})
}

// RejectedError is returned for a request that failed validation.
type RejectedError struct {
	Violations []Violation
}

func (e *RejectedError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Paths returns the violating paths in report order.
func (e *RejectedError) Paths() []string {
	paths := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		paths = append(paths, v.Path)
	}
	return paths
}
