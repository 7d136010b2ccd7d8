// Package api registers typed handlers in one init phase.
//
// Each Get/Post/Put/Delete call derives the operation's schema from the
// handler's request and response types, registers it, and adds a route whose
// invoker validates, decodes, calls the handler, encodes and optionally checks
// the response. Build freezes everything; afterwards the Service is read-only.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/artpar/wildgate/core/registry"
	"github.com/artpar/wildgate/core/route"
	"github.com/artpar/wildgate/core/schema"
)

// ErrBuilt is returned when the builder is used after Build.
var ErrBuilt = errors.New("api: builder already built")

// Handler is a typed operation implementation.
type Handler[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Empty is a request or response without fields.
type Empty struct{}

// Option configures a Builder.
type Option func(*Builder)

// WithRenderer sets the function that renders the documentation export.
func WithRenderer(fn registry.RenderFunc) Option {
	return func(b *Builder) { b.renderer = fn }
}

// WithStrict rejects unknown body fields for every operation.
func WithStrict(strict bool) Option {
	return func(b *Builder) { b.strict = strict }
}

// WithOutboundValidation checks every encoded response against its schema.
func WithOutboundValidation(enabled bool) Option {
	return func(b *Builder) { b.outbound = enabled }
}

// WithValidator sets the rule validator shared by derivation and the gate.
func WithValidator(v *validator.Validate) Option {
	return func(b *Builder) { b.validate = v }
}

// Builder collects operations. It is not safe for concurrent use.
type Builder struct {
	renderer registry.RenderFunc
	strict   bool
	outbound bool
	validate *validator.Validate

	reg   *registry.Registry
	table *route.Table
	errs  []error
	built bool

	// defs is set by Build; invokers read it only after that.
	defs schema.Defs
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}

	var regOpts []registry.Option
	if b.renderer != nil {
		regOpts = append(regOpts, registry.WithRenderer(b.renderer))
	}
	if b.validate != nil {
		regOpts = append(regOpts, registry.WithDeriver(schema.NewDeriver(schema.WithValidator(b.validate))))
	}
	b.reg = registry.New(regOpts...)
	b.table = route.NewTable()
	return b
}

// Err returns every registration error so far.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Build freezes the registry and returns the service. Any registration
// error fails the build; nothing is served from a partial table.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, ErrBuilt
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("api: build: %w", err)
	}
	if err := b.reg.Freeze(); err != nil {
		return nil, fmt.Errorf("api: build: %w", err)
	}
	b.defs = b.reg.Defs()
	b.built = true
	return &Service{registry: b.reg, table: b.table}, nil
}

// OperationOption configures one operation.
type OperationOption func(*operation)

type operation struct {
	id          string
	summary     string
	description string
	tags        []string
	status      int
	strict      bool
	deprecated  bool
}

// ID sets the operation id. The default is derived from method and path.
func ID(id string) OperationOption {
	return func(o *operation) { o.id = id }
}

// Summary sets the one-line summary.
func Summary(s string) OperationOption {
	return func(o *operation) { o.summary = s }
}

// Description sets the long description.
func Description(s string) OperationOption {
	return func(o *operation) { o.description = s }
}

// Tags groups the operation in the documentation.
func Tags(tags ...string) OperationOption {
	return func(o *operation) { o.tags = append(o.tags, tags...) }
}

// Status sets the success status. The default is 200.
func Status(code int) OperationOption {
	return func(o *operation) { o.status = code }
}

// Strict rejects unknown body fields for this operation.
func Strict() OperationOption {
	return func(o *operation) { o.strict = true }
}

// Deprecated marks the operation deprecated.
func Deprecated() OperationOption {
	return func(o *operation) { o.deprecated = true }
}

// Get registers a GET operation.
func Get[Req, Resp any](b *Builder, path string, fn Handler[Req, Resp], opts ...OperationOption) {
	register(b, http.MethodGet, path, fn, opts)
}

// Post registers a POST operation.
func Post[Req, Resp any](b *Builder, path string, fn Handler[Req, Resp], opts ...OperationOption) {
	register(b, http.MethodPost, path, fn, opts)
}

// Put registers a PUT operation.
func Put[Req, Resp any](b *Builder, path string, fn Handler[Req, Resp], opts ...OperationOption) {
	register(b, http.MethodPut, path, fn, opts)
}

// Patch registers a PATCH operation.
func Patch[Req, Resp any](b *Builder, path string, fn Handler[Req, Resp], opts ...OperationOption) {
	register(b, http.MethodPatch, path, fn, opts)
}

// Delete registers a DELETE operation.
func Delete[Req, Resp any](b *Builder, path string, fn Handler[Req, Resp], opts ...OperationOption) {
	register(b, http.MethodDelete, path, fn, opts)
}

func register[Req, Resp any](b *Builder, method, path string, fn Handler[Req, Resp], opts []OperationOption) {
	if b.built {
		b.errs = append(b.errs, fmt.Errorf("%s %s: %w", method, path, ErrBuilt))
		return
	}
	if fn == nil {
		b.errs = append(b.errs, fmt.Errorf("%s %s: nil handler", method, path))
		return
	}

	o := operation{status: http.StatusOK}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = operationID(method, path)
	}

	var respType reflect.Type
	if t := reflect.TypeFor[Resp](); t != reflect.TypeFor[Empty]() || o.status != http.StatusNoContent {
		respType = t
	}

	desc, err := b.reg.Register(registry.Operation{
		ID:          o.id,
		Method:      method,
		Path:        path,
		Summary:     o.summary,
		Description: o.description,
		Tags:        o.tags,
		Deprecated:  o.deprecated,
		Strict:      o.strict,
		Input:       reflect.TypeFor[Req](),
		Responses:   map[int]reflect.Type{o.status: respType},
	})
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}

	entry := route.Entry{Operation: desc, Invoke: newInvoker(b, desc, fn)}
	if err := b.table.Add(entry); err != nil {
		b.errs = append(b.errs, err)
	}
}

// operationID turns "GET /v1/positions/{name}" into "getV1PositionsByName".
func operationID(method, path string) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			sb.WriteString("By")
			seg = strings.Trim(seg, "{}")
		}
		for _, word := range strings.FieldsFunc(seg, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			r := []rune(word)
			r[0] = unicode.ToUpper(r[0])
			sb.WriteString(string(r))
		}
	}
	return sb.String()
}
