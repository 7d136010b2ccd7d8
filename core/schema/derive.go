package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var timeType = reflect.TypeOf(time.Time{})

// ParamIn is the request location of a parameter.
type ParamIn string

const (
	InPath  ParamIn = "path"
	InQuery ParamIn = "query"
)

// Param is a path or query parameter bound to a struct field.
type Param struct {
	Name     string
	In       ParamIn
	Node     *Node
	Required bool
	// Index is the reflect field index used to bind the coerced value.
	Index []int
}

// Key identifies the parameter across locations, e.g. query.limit.
func (p Param) Key() string {
	return string(p.In) + "." + p.Name
}

// Option configures a Deriver.
type Option func(*Deriver)

// AllowRecursive lets a named struct refer to itself.
func AllowRecursive() Option {
	return func(d *Deriver) { d.recursive = true }
}

// WithValidator sets the validator used to check rules at derivation time.
func WithValidator(v *validator.Validate) Option {
	return func(d *Deriver) { d.validate = v }
}

// Deriver builds nodes from Go types and collects named definitions.
// A Deriver is not safe for concurrent use.
type Deriver struct {
	defs      Defs
	types     map[string]reflect.Type
	building  map[reflect.Type]bool
	recursive bool
	validate  *validator.Validate
}

// NewDeriver creates a Deriver with an empty definition set.
func NewDeriver(opts ...Option) *Deriver {
	d := &Deriver{
		defs:     make(Defs),
		types:    make(map[string]reflect.Type),
		building: make(map[reflect.Type]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.validate == nil {
		d.validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return d
}

// Defs returns the definitions collected so far. Callers must not modify it.
func (d *Deriver) Defs() Defs {
	return d.defs
}

// Clone returns an independent copy. Nodes are shared since they are never mutated
// after derivation.
func (d *Deriver) Clone() *Deriver {
	c := &Deriver{
		defs:      make(Defs, len(d.defs)),
		types:     make(map[string]reflect.Type, len(d.types)),
		building:  make(map[reflect.Type]bool),
		recursive: d.recursive,
		validate:  d.validate,
	}
	for k, v := range d.defs {
		c.defs[k] = v
	}
	for k, v := range d.types {
		c.types[k] = v
	}
	return c
}

// Node derives the node describing values of type t.
func (d *Deriver) Node(t reflect.Type) (*Node, error) {
	if t == nil {
		return &Node{Kind: KindAny}, nil
	}
	return d.node(t, "", t.String())
}

// Params derives the path and query parameters declared on struct type t.
// Path parameters are always required; a query parameter is required only
// when its validate tag says so.
func (d *Deriver) Params(t reflect.Type) ([]Param, error) {
	t = indirect(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, nil
	}

	var params []Param
	seen := make(map[string]bool)
	for _, fi := range structFields(t) {
		in, name := paramTag(fi.field)
		if in == "" {
			continue
		}
		key := string(in) + ":" + name
		if seen[key] {
			return nil, fmt.Errorf("%w: %s parameter %q declared twice", ErrMalformedSchema, in, name)
		}
		seen[key] = true

		tag := fi.field.Tag.Get("validate")
		n, err := d.node(fi.field.Type, tag, string(in)+"."+name)
		if err != nil {
			return nil, err
		}
		if !n.Kind.IsPrimitive() {
			return nil, fmt.Errorf("%w: %s parameter %q must be a primitive, got %s",
				ErrMalformedSchema, in, name, n.Kind)
		}
		n.Description = fi.field.Tag.Get("doc")
		n.Example = fi.field.Tag.Get("example")

		params = append(params, Param{
			Name:     name,
			In:       in,
			Node:     n,
			Required: in == InPath || parseRules(tag).required,
			Index:    fi.index,
		})
	}
	return params, nil
}

// HasBody reports whether t carries anything besides parameters.
func HasBody(t reflect.Type) bool {
	t = indirect(t)
	if t == nil {
		return false
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return true
	}
	for _, fi := range structFields(t) {
		if in, _ := paramTag(fi.field); in == "" {
			return true
		}
	}
	return false
}

func (d *Deriver) node(t reflect.Type, tag, at string) (*Node, error) {
	rs := parseRules(tag)

	nullable := false
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
		nullable = true
	}

	var (
		n   *Node
		err error
	)
	switch {
	case t == timeType:
		n = &Node{Kind: KindString, Format: "date-time"}
	case t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		n = &Node{Kind: KindString, Format: "byte"}
	default:
		switch t.Kind() {
		case reflect.Bool:
			n = &Node{Kind: KindBoolean}
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
			n = &Node{Kind: KindInteger, Format: "int32"}
		case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
			n = &Node{Kind: KindInteger, Format: "int64"}
		case reflect.Float32:
			n = &Node{Kind: KindNumber, Format: "float"}
		case reflect.Float64:
			n = &Node{Kind: KindNumber, Format: "double"}
		case reflect.String:
			n = &Node{Kind: KindString}
		case reflect.Slice, reflect.Array:
			items, ierr := d.node(t.Elem(), rs.item, at+"[]")
			if ierr != nil {
				return nil, ierr
			}
			n = &Node{Kind: KindArray, Items: items}
			if t.Kind() == reflect.Array && !hasRule(rs.own, "len") {
				rs.own = joinRules("len="+strconv.Itoa(t.Len()), rs.own)
			}
		case reflect.Map:
			if t.Key().Kind() != reflect.String {
				return nil, fmt.Errorf("%w: %s: map key must be a string, got %s", ErrMalformedSchema, at, t.Key())
			}
			items, ierr := d.node(t.Elem(), rs.item, at+"{}")
			if ierr != nil {
				return nil, ierr
			}
			n = &Node{Kind: KindMap, Items: items}
		case reflect.Interface:
			n = &Node{Kind: KindAny}
		case reflect.Struct:
			if t.Name() == "" {
				n, err = d.object(t, at)
			} else {
				n, err = d.ref(t, at)
			}
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: %s: unsupported type %s", ErrMalformedSchema, at, t)
		}
	}

	// encoding/json writes nil slices and maps as null.
	if t.Kind() == reflect.Slice || t.Kind() == reflect.Map {
		nullable = true
	}
	if lo, hi, ok := intRange(t); ok {
		rs.own = joinRules("gte="+strconv.FormatInt(lo, 10)+",lte="+strconv.FormatInt(hi, 10), rs.own)
	} else if isUnsigned(t) && !hasRule(rs.own, "min", "gte", "gt", "len", "eq") {
		rs.own = joinRules("gte=0", rs.own)
	}
	if rs.item != "" && n.Items == nil {
		return nil, fmt.Errorf("%w: %s: dive on a %s", ErrMalformedSchema, at, n.Kind)
	}
	if rs.own != "" {
		switch n.Kind {
		case KindObject, KindRef, KindAny:
			return nil, fmt.Errorf("%w: %s: rules %q on a %s", ErrMalformedSchema, at, rs.own, n.Kind)
		}
		if err := d.checkRules(t, rs.own); err != nil {
			return nil, fmt.Errorf("%s: %w", at, err)
		}
		n.Rules = rs.own
		n.Constraints = constraintsOf(n.Kind, rs.own)
	}
	n.Nullable = nullable
	return n, nil
}

func (d *Deriver) ref(t reflect.Type, at string) (*Node, error) {
	name := defName(t)
	ref := &Node{Kind: KindRef, Ref: name}

	if prev, ok := d.types[name]; ok && prev != t {
		return nil, fmt.Errorf("%w: %s and %s share the name %q", ErrMalformedSchema, prev, t, name)
	}
	if _, done := d.defs[name]; done {
		return ref, nil
	}
	if d.building[t] {
		if d.recursive {
			return ref, nil
		}
		return nil, fmt.Errorf("%w: %s refers to itself at %s", ErrMalformedSchema, name, at)
	}

	d.building[t] = true
	defer delete(d.building, t)
	d.types[name] = t

	obj, err := d.object(t, name)
	if err != nil {
		delete(d.types, name)
		return nil, err
	}
	d.defs[name] = obj
	return ref, nil
}

func (d *Deriver) object(t reflect.Type, at string) (*Node, error) {
	n := &Node{Kind: KindObject}
	for _, fi := range structFields(t) {
		if in, _ := paramTag(fi.field); in != "" {
			continue
		}
		tag := fi.field.Tag.Get("validate")
		rs := parseRules(tag)

		fn, err := d.node(fi.field.Type, tag, at+"."+fi.name)
		if err != nil {
			return nil, err
		}
		fn.Description = fi.field.Tag.Get("doc")
		fn.Example = fi.field.Tag.Get("example")

		optional := fi.omitempty || rs.omitempty || fi.field.Type.Kind() == reflect.Pointer
		n.Fields = append(n.Fields, Field{
			Name:     fi.name,
			Node:     fn,
			Required: rs.required || !optional,
		})
	}
	return n, nil
}

// checkRules runs the rules once against the zero value so that an unknown
// validator or a bad parameter fails here instead of on the first request.
func (d *Deriver) checkRules(t reflect.Type, rules string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: invalid rules %q: %v", ErrMalformedSchema, rules, r)
		}
	}()
	_ = d.validate.Var(reflect.Zero(t).Interface(), rules)
	return nil
}

type fieldInfo struct {
	field     reflect.StructField
	index     []int
	name      string
	omitempty bool
}

// structFields lists the fields encoding/json would see, with untagged
// embedded structs flattened into their parent.
func structFields(t reflect.Type) []fieldInfo {
	var out []fieldInfo
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			index := append(append([]int(nil), prefix...), i)

			tag := sf.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			if sf.Anonymous && name == "" {
				if ft := indirect(sf.Type); ft.Kind() == reflect.Struct {
					walk(ft, index)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}
			if name == "" {
				name = sf.Name
			}
			out = append(out, fieldInfo{
				field:     sf,
				index:     index,
				name:      name,
				omitempty: hasOption(opts, "omitempty"),
			})
		}
	}
	walk(t, nil)
	return out
}

func paramTag(sf reflect.StructField) (ParamIn, string) {
	if name := sf.Tag.Get("path"); name != "" {
		return InPath, name
	}
	if name := sf.Tag.Get("query"); name != "" {
		return InQuery, name
	}
	return "", ""
}

func hasOption(opts, want string) bool {
	for _, o := range strings.Split(opts, ",") {
		if o == want {
			return true
		}
	}
	return false
}

func indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// intRange returns the bounds of integer kinds narrower than 64 bits.
func intRange(t reflect.Type) (lo, hi int64, ok bool) {
	switch t.Kind() {
	case reflect.Int8:
		return math.MinInt8, math.MaxInt8, true
	case reflect.Int16:
		return math.MinInt16, math.MaxInt16, true
	case reflect.Int32:
		return math.MinInt32, math.MaxInt32, true
	case reflect.Uint8:
		return 0, math.MaxUint8, true
	case reflect.Uint16:
		return 0, math.MaxUint16, true
	case reflect.Uint32:
		return 0, math.MaxUint32, true
	}
	return 0, 0, false
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// defName turns a type name into a component name. Generic instantiations
// carry package paths in brackets which are not valid there.
func defName(t reflect.Type) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, t.Name())
}
