/*
Package schema describes the shape of API payloads.

A Node is derived from the Go type a handler uses at runtime, so the documentation,
the validation gate and the codec all read the same description:

	type EvalRequest struct {
	    Position Position `json:"position"`
	    Comment  string   `json:"comment,omitempty" validate:"max=200"`
	}

	d := schema.NewDeriver()
	node, err := d.Node(reflect.TypeOf(EvalRequest{}))

# Mapping

  - bool:                boolean
  - signed integers:     integer (int32 or int64 format)
  - unsigned integers:   integer with minimum 0
  - floats:              number
  - string:              string
  - []byte:              string, byte format
  - time.Time:           string, date-time format
  - slices:              array
  - [N]T arrays:         array with exactly N items
  - map[string]T:        map (object with additional properties)
  - named structs:       ref to a shared definition
  - anonymous structs:   inline object
  - interface values:    any

Slices, maps and pointers are nullable since encoding/json writes nil as null.

# Required Fields

A struct field is required unless its json tag has omitempty, its validate tag has
omitempty, or it is a pointer. A validate tag containing required always wins.

# Parameters

Fields tagged path:"name" or query:"name" are parameters, not body fields. They must be
primitives. Path parameters are always required; query parameters only with validate:"required".

# Rules

The remaining validate tag (go-playground/validator syntax) becomes the node's Rules.
Everything after dive applies to array items and map values. Rules are checked on the
zero value at derivation time so a mistyped tag fails at startup.

# Recursion

A named struct that reaches itself through its fields is rejected with
ErrMalformedSchema unless the Deriver was created with AllowRecursive.
*/
package schema
