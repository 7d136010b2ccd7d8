package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedSchema is returned when a type cannot be described by a Node.
var ErrMalformedSchema = errors.New("malformed schema")

// Kind identifies the shape of a value.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindMap     Kind = "map"
	KindAny     Kind = "any"
	KindRef     Kind = "ref"
)

// IsPrimitive reports whether values of the kind are scalars.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindString, KindInteger, KindNumber, KindBoolean:
		return true
	}
	return false
}

// Node describes one value.
type Node struct {
	Kind Kind

	// Ref is the definition name for KindRef.
	Ref string

	Format      string
	Description string
	Example     string
	Nullable    bool

	// Fields are the properties of KindObject, in declaration order.
	Fields []Field

	// Items is the element node of KindArray and the value node of KindMap.
	Items *Node

	// Rules is a validator tag applied to the value itself.
	Rules string

	// Constraints is the documentation form of Rules.
	Constraints Constraints
}

// Field is a named property of an object node.
type Field struct {
	Name     string
	Node     *Node
	Required bool
}

// Constraints are the limits of a node expressed for documentation.
type Constraints struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum bool
	ExclusiveMaximum bool
	MinLength        *int
	MaxLength        *int
	MinItems         *int
	MaxItems         *int
	Enum             []string
}

// Field returns the named field of an object node.
func (n *Node) Field(name string) (Field, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RequiredFields returns the names of required fields in declaration order.
func (n *Node) RequiredFields() []string {
	var names []string
	for _, f := range n.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Describe returns a short human-readable form used in violation reports.
func (n *Node) Describe() string {
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case KindRef:
		return "object " + n.Ref
	case KindArray:
		return "array of " + n.Items.Describe()
	case KindMap:
		return "object of " + n.Items.Describe()
	case KindString, KindInteger, KindNumber:
		if n.Format != "" {
			return fmt.Sprintf("%s (%s)", n.Kind, n.Format)
		}
	}
	return string(n.Kind)
}

// Defs holds shared named definitions.
type Defs map[string]*Node

// Resolve follows refs until a concrete node is reached.
func (d Defs) Resolve(n *Node) (*Node, error) {
	seen := 0
	for n != nil && n.Kind == KindRef {
		target, ok := d[n.Ref]
		if !ok {
			return nil, fmt.Errorf("%w: unknown definition %q", ErrMalformedSchema, n.Ref)
		}
		n = target
		seen++
		if seen > len(d) {
			return nil, fmt.Errorf("%w: ref loop at %q", ErrMalformedSchema, n.Ref)
		}
	}
	return n, nil
}

// Names returns the definition names sorted.
func (d Defs) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// References returns the definition names n refers to, directly or through other definitions.
func (d Defs) References(n *Node) []string {
	seen := make(map[string]bool)
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case KindRef:
			if seen[n.Ref] {
				return
			}
			seen[n.Ref] = true
			walk(d[n.Ref])
		case KindObject:
			for _, f := range n.Fields {
				walk(f.Node)
			}
		case KindArray, KindMap:
			walk(n.Items)
		}
	}
	walk(n)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
