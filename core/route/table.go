// Package route maps (method, path) pairs to operation invokers.
// Matching is delegated to a chi mux that is used only as a matcher and never
// serves requests itself.
package route

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artpar/wildgate/core/registry"
)

var (
	ErrNotFound         = errors.New("route not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrDuplicateRoute   = errors.New("duplicate route")
)

// Input is an undecoded request.
type Input struct {
	Body  []byte
	Path  map[string]string
	Query url.Values
}

// Output is an encoded response.
type Output struct {
	Status int
	Body   []byte
}

// Invoker runs one operation on raw bytes. Typed decode and encode live in
// the closure that built it.
type Invoker func(ctx context.Context, in Input) (Output, error)

// Entry pairs an operation with its invoker.
type Entry struct {
	Operation registry.OperationDescriptor
	Invoke    Invoker
}

// Match is the result of a successful dispatch.
type Match struct {
	Entry  *Entry
	Params map[string]string
}

// MethodNotAllowedError reports a path that exists under other methods.
type MethodNotAllowedError struct {
	Method  string
	Path    string
	Allowed []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("%s %s: method not allowed (allowed: %s)", e.Method, e.Path, strings.Join(e.Allowed, ", "))
}

func (e *MethodNotAllowedError) Unwrap() error {
	return ErrMethodNotAllowed
}

// Table is the route table. Add is for startup only; Dispatch is safe for
// concurrent use once adding is done.
type Table struct {
	mux      *chi.Mux
	keys     map[string]*Entry            // method + normalized path
	patterns map[string]map[string]*Entry // pattern -> method
	methods  []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		mux:      chi.NewMux(),
		keys:     make(map[string]*Entry),
		patterns: make(map[string]map[string]*Entry),
	}
}

var matchOnly = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

// Add inserts e. A template that differs from an existing one of the same
// method only by parameter names is a duplicate.
func (t *Table) Add(e Entry) (err error) {
	op := e.Operation
	if e.Invoke == nil {
		return fmt.Errorf("route %s %s: nil invoker", op.Method, op.Path)
	}
	key := op.Method + " " + registry.NormalizePath(op.Path)
	if existing, ok := t.keys[key]; ok {
		return fmt.Errorf("%w: %s %s conflicts with %s (%s)",
			ErrDuplicateRoute, op.Method, op.Path, existing.Operation.Path, existing.Operation.ID)
	}
	if _, err := registry.ParsePath(op.Path); err != nil {
		return fmt.Errorf("route %s %s: %w", op.Method, op.Path, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("route %s %s: %v", op.Method, op.Path, r)
		}
	}()
	t.mux.Method(op.Method, op.Path, matchOnly)

	entry := &Entry{Operation: op, Invoke: e.Invoke}
	t.keys[key] = entry
	if t.patterns[op.Path] == nil {
		t.patterns[op.Path] = make(map[string]*Entry)
	}
	t.patterns[op.Path][op.Method] = entry
	if !contains(t.methods, op.Method) {
		t.methods = append(t.methods, op.Method)
		sort.Strings(t.methods)
	}
	return nil
}

// Dispatch finds the entry for method and path. path is the escaped request
// path; parameter values are returned unescaped.
func (t *Table) Dispatch(method, path string) (Match, error) {
	rctx := chi.NewRouteContext()
	if t.mux.Match(rctx, method, path) && len(rctx.RoutePatterns) > 0 {
		pattern := rctx.RoutePatterns[len(rctx.RoutePatterns)-1]
		if entry := t.patterns[pattern][method]; entry != nil {
			params := make(map[string]string, len(rctx.URLParams.Keys))
			for i, k := range rctx.URLParams.Keys {
				v := rctx.URLParams.Values[i]
				if unescaped, err := url.PathUnescape(v); err == nil {
					v = unescaped
				}
				params[k] = v
			}
			return Match{Entry: entry, Params: params}, nil
		}
	}

	var allowed []string
	for _, m := range t.methods {
		if m == method {
			continue
		}
		if t.mux.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) > 0 {
		return Match{}, &MethodNotAllowedError{Method: method, Path: path, Allowed: allowed}
	}
	return Match{}, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// Entries returns the entries sorted by path then method.
func (t *Table) Entries() []Entry {
	entries := make([]Entry, 0, len(t.keys))
	for _, e := range t.keys {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Operation, entries[j].Operation
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Method < b.Method
	})
	return entries
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
