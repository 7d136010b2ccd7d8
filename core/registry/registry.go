// Package registry holds the description of every API operation.
// Operations are registered during startup, then the registry is frozen and
// shared read-only by the router, the validation gate and the docs server.
package registry

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/artpar/wildgate/core/schema"
)

var (
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrMalformedSchema    = schema.ErrMalformedSchema
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrFrozen             = errors.New("registry is frozen")
	ErrNoRenderer         = errors.New("registry has no renderer")
)

// Operation is the registration input. Types are described by reflection.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Strict      bool

	// Input carries path and query parameters and the request body fields.
	Input reflect.Type
	// Responses maps a status code to its body type; nil means no body.
	Responses map[int]reflect.Type
}

// OperationDescriptor is the immutable description of a registered operation.
type OperationDescriptor struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Strict      bool

	Params []schema.Param
	// Body is nil when the operation takes no request body.
	Body      *schema.Node
	Responses map[int]*schema.Node
}

// SuccessStatus returns the lowest 2xx status declared.
func (d OperationDescriptor) SuccessStatus() int {
	best := 0
	for status := range d.Responses {
		if status >= 200 && status < 300 && (best == 0 || status < best) {
			best = status
		}
	}
	if best == 0 {
		return http.StatusOK
	}
	return best
}

// Statuses returns the declared response statuses in ascending order.
func (d OperationDescriptor) Statuses() []int {
	statuses := make([]int, 0, len(d.Responses))
	for status := range d.Responses {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	return statuses
}

// Rendered is the export document in both serializations.
type Rendered struct {
	JSON []byte
	YAML []byte
}

// RenderFunc turns the registered operations into the export document.
type RenderFunc func(ops []OperationDescriptor, defs schema.Defs) (Rendered, error)

// Option configures a Registry.
type Option func(*Registry)

// WithRenderer sets the export renderer.
func WithRenderer(fn RenderFunc) Option {
	return func(r *Registry) { r.render = fn }
}

// WithDeriver sets the deriver used for schema derivation.
func WithDeriver(d *schema.Deriver) Option {
	return func(r *Registry) { r.deriver = d }
}

// Registry holds operation descriptors.
type Registry struct {
	mu sync.RWMutex

	deriver *schema.Deriver
	render  RenderFunc

	ops    map[string]OperationDescriptor
	routes map[string]string // method + normalized path -> id

	frozen   atomic.Bool
	rendered atomic.Pointer[Rendered]
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		ops:    make(map[string]OperationDescriptor),
		routes: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.deriver == nil {
		r.deriver = schema.NewDeriver()
	}
	return r
}

// Register describes op and adds it. A failed registration leaves the registry unchanged.
func (r *Registry) Register(op Operation) (OperationDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return OperationDescriptor{}, fmt.Errorf("register %s: %w", op.ID, ErrFrozen)
	}
	if op.ID == "" {
		return OperationDescriptor{}, fmt.Errorf("%w: operation id is required", ErrInvalidOperation)
	}
	if !validMethod(op.Method) {
		return OperationDescriptor{}, fmt.Errorf("%w: %s: unsupported method %q", ErrInvalidOperation, op.ID, op.Method)
	}
	if _, exists := r.ops[op.ID]; exists {
		return OperationDescriptor{}, fmt.Errorf("%w: id %q already registered", ErrDuplicateOperation, op.ID)
	}
	key := op.Method + " " + NormalizePath(op.Path)
	if existing, exists := r.routes[key]; exists {
		return OperationDescriptor{}, fmt.Errorf("%w: %s %s already registered by %q",
			ErrDuplicateOperation, op.Method, op.Path, existing)
	}

	d := r.deriver.Clone()
	desc, err := describe(d, op)
	if err != nil {
		return OperationDescriptor{}, fmt.Errorf("register %s: %w", op.ID, err)
	}

	r.deriver = d
	r.ops[op.ID] = desc
	r.routes[key] = op.ID
	r.rendered.Store(nil)
	return desc, nil
}

func describe(d *schema.Deriver, op Operation) (OperationDescriptor, error) {
	desc := OperationDescriptor{
		ID:          op.ID,
		Method:      op.Method,
		Path:        op.Path,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        append([]string(nil), op.Tags...),
		Deprecated:  op.Deprecated,
		Strict:      op.Strict,
		Responses:   make(map[int]*schema.Node, len(op.Responses)),
	}
	sort.Strings(desc.Tags)

	names, err := ParsePath(op.Path)
	if err != nil {
		return desc, err
	}

	if op.Input != nil {
		params, err := d.Params(op.Input)
		if err != nil {
			return desc, err
		}
		desc.Params = params

		if schema.HasBody(op.Input) {
			if !allowsBody(op.Method) {
				return desc, fmt.Errorf("%w: %s requests cannot carry body fields", ErrMalformedSchema, op.Method)
			}
			body, err := d.Node(op.Input)
			if err != nil {
				return desc, err
			}
			desc.Body = body
		}
	}

	declared := make(map[string]bool)
	for _, p := range desc.Params {
		if p.In == schema.InPath {
			declared[p.Name] = true
		}
	}
	for _, name := range names {
		if !declared[name] {
			return desc, fmt.Errorf("%w: path parameter {%s} has no field", ErrMalformedSchema, name)
		}
		delete(declared, name)
	}
	if len(declared) > 0 {
		extra := make([]string, 0, len(declared))
		for name := range declared {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		return desc, fmt.Errorf("%w: path parameter fields %v are not in %s", ErrMalformedSchema, extra, op.Path)
	}

	if len(op.Responses) == 0 {
		return desc, fmt.Errorf("%w: no responses declared", ErrInvalidOperation)
	}
	for status, t := range op.Responses {
		if status < 100 || status > 599 {
			return desc, fmt.Errorf("%w: invalid status %d", ErrInvalidOperation, status)
		}
		if t == nil {
			desc.Responses[status] = nil
			continue
		}
		n, err := d.Node(t)
		if err != nil {
			return desc, err
		}
		desc.Responses[status] = n
	}
	return desc, nil
}

// Resolve returns the descriptor registered under id.
func (r *Registry) Resolve(id string) (OperationDescriptor, error) {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	desc, ok := r.ops[id]
	if !ok {
		return OperationDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownOperation, id)
	}
	return desc, nil
}

// Operations returns every descriptor sorted by path then method.
func (r *Registry) Operations() []OperationDescriptor {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return r.sorted()
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return len(r.ops)
}

// Defs returns the shared schema definitions. Callers must not modify it.
func (r *Registry) Defs() schema.Defs {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	return r.deriver.Defs()
}

// Frozen reports whether Freeze has completed.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Freeze ends registration and renders the export once.
// Calling Freeze again is a no-op.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return nil
	}
	if r.render != nil {
		out, err := r.renderLocked()
		if err != nil {
			return fmt.Errorf("freeze: %w", err)
		}
		r.rendered.Store(&out)
	}
	r.frozen.Store(true)
	return nil
}

// Export returns the export document as JSON. After Freeze every call
// returns the same bytes.
func (r *Registry) Export() ([]byte, error) {
	out, err := r.export()
	if err != nil {
		return nil, err
	}
	return out.JSON, nil
}

// ExportYAML returns the export document as YAML.
func (r *Registry) ExportYAML() ([]byte, error) {
	out, err := r.export()
	if err != nil {
		return nil, err
	}
	return out.YAML, nil
}

func (r *Registry) export() (*Rendered, error) {
	if out := r.rendered.Load(); out != nil {
		return out, nil
	}
	if r.render == nil {
		return nil, ErrNoRenderer
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if out := r.rendered.Load(); out != nil {
		return out, nil
	}
	out, err := r.renderLocked()
	if err != nil {
		return nil, err
	}
	r.rendered.Store(&out)
	return &out, nil
}

func (r *Registry) renderLocked() (Rendered, error) {
	return r.render(r.sorted(), r.deriver.Defs())
}

func (r *Registry) sorted() []OperationDescriptor {
	ops := make([]OperationDescriptor, 0, len(r.ops))
	for _, op := range r.ops {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return methodRank(ops[i].Method) < methodRank(ops[j].Method)
	})
	return ops
}

var methods = []string{
	http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete,
	http.MethodOptions, http.MethodHead, http.MethodPatch,
}

// methodRank orders methods the way OpenAPI path items list them.
func methodRank(m string) int {
	for i, known := range methods {
		if m == known {
			return i
		}
	}
	return len(methods)
}

func validMethod(m string) bool {
	return methodRank(m) < len(methods)
}

func allowsBody(m string) bool {
	switch m {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
