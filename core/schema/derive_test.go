package schema

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type board struct {
	Pips [26]int `json:"pips" validate:"dive,min=-15,max=15"`
	XOff uint8   `json:"x_off,omitempty" validate:"max=15"`
}

type evalRequest struct {
	Position board   `json:"position"`
	Comment  *string `json:"comment"`
	Tags     []string
	Labels   map[string]int `json:"labels,omitempty" validate:"dive,gte=0"`
	Seen     time.Time      `json:"seen" doc:"last evaluation"`
	Ignored  string         `json:"-"`
	hidden   int
}

type lookup struct {
	Name   string `path:"name"`
	Switch bool   `query:"switch_sides"`
	Limit  int    `query:"limit" validate:"required,min=1"`
}

type node struct {
	Value    int     `json:"value"`
	Children []*node `json:"children"`
}

type left struct {
	Right *right `json:"right"`
}

type right struct {
	Left left `json:"left"`
}

type Base struct {
	ID string `json:"id"`
}

type withEmbedded struct {
	Base
	Name string `json:"name"`
}

func TestDeriver_Node_Object(t *testing.T) {
	d := NewDeriver()
	n, err := d.Node(reflect.TypeOf(evalRequest{}))
	if err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	if n.Kind != KindRef || n.Ref != "evalRequest" {
		t.Fatalf("Node() = %s %q, want ref evalRequest", n.Kind, n.Ref)
	}

	obj := d.Defs()["evalRequest"]
	if obj == nil {
		t.Fatal("evalRequest not in defs")
	}

	var names []string
	for _, f := range obj.Fields {
		names = append(names, f.Name)
	}
	want := []string{"position", "comment", "Tags", "labels", "seen"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("fields = %v, want %v", names, want)
	}

	required := obj.RequiredFields()
	if !reflect.DeepEqual(required, []string{"position", "Tags", "seen"}) {
		t.Errorf("RequiredFields() = %v", required)
	}

	comment, _ := obj.Field("comment")
	if !comment.Node.Nullable || comment.Node.Kind != KindString {
		t.Errorf("comment = %+v, want nullable string", comment.Node)
	}

	seen, _ := obj.Field("seen")
	if seen.Node.Format != "date-time" || seen.Node.Description != "last evaluation" {
		t.Errorf("seen = %+v", seen.Node)
	}

	labels, _ := obj.Field("labels")
	if labels.Node.Kind != KindMap || labels.Node.Items.Rules != "gte=0" {
		t.Errorf("labels = %+v", labels.Node)
	}
}

func TestDeriver_Node_FixedArray(t *testing.T) {
	d := NewDeriver()
	if _, err := d.Node(reflect.TypeOf(board{})); err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	pips, ok := d.Defs()["board"].Field("pips")
	if !ok {
		t.Fatal("pips field missing")
	}
	n := pips.Node
	if n.Kind != KindArray {
		t.Fatalf("pips kind = %s, want array", n.Kind)
	}
	if n.Rules != "len=26" {
		t.Errorf("pips rules = %q, want len=26", n.Rules)
	}
	if *n.Constraints.MinItems != 26 || *n.Constraints.MaxItems != 26 {
		t.Errorf("pips items = %d..%d, want 26..26", *n.Constraints.MinItems, *n.Constraints.MaxItems)
	}
	if n.Items.Rules != "min=-15,max=15" {
		t.Errorf("item rules = %q", n.Items.Rules)
	}
	if *n.Items.Constraints.Minimum != -15 || *n.Items.Constraints.Maximum != 15 {
		t.Errorf("item constraints = %+v", n.Items.Constraints)
	}

	xoff, _ := d.Defs()["board"].Field("x_off")
	if xoff.Required {
		t.Error("x_off should be optional")
	}
	if xoff.Node.Rules != "gte=0,lte=255,max=15" {
		t.Errorf("x_off rules = %q, want gte=0,lte=255,max=15", xoff.Node.Rules)
	}
	if *xoff.Node.Constraints.Minimum != 0 || *xoff.Node.Constraints.Maximum != 15 {
		t.Errorf("x_off constraints = %+v, want 0..15", xoff.Node.Constraints)
	}
}

func TestDeriver_Node_NarrowIntegers(t *testing.T) {
	type levels struct {
		A int8   `json:"a"`
		B int16  `json:"b" validate:"gt=-5"`
		C uint16 `json:"c"`
		D uint32 `json:"d"`
		E int32  `json:"e"`
		F int64  `json:"f"`
	}
	tests := map[string][2]float64{
		"a": {-128, 127},
		"b": {-5, 32767},
		"c": {0, 65535},
		"d": {0, 4294967295},
		"e": {-2147483648, 2147483647},
	}

	d := NewDeriver()
	if _, err := d.Node(reflect.TypeOf(levels{})); err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	n := d.Defs()["levels"]
	for name, want := range tests {
		f, _ := n.Field(name)
		c := f.Node.Constraints
		if c.Minimum == nil || c.Maximum == nil {
			t.Errorf("%s: constraints = %+v, want bounds", name, c)
			continue
		}
		if *c.Minimum != want[0] || *c.Maximum != want[1] {
			t.Errorf("%s: range = %v..%v, want %v..%v", name, *c.Minimum, *c.Maximum, want[0], want[1])
		}
	}
	b, _ := n.Field("b")
	if !b.Node.Constraints.ExclusiveMinimum {
		t.Error("b: gt should stay exclusive")
	}
	if f, _ := n.Field("f"); f.Node.Rules != "" {
		t.Errorf("f rules = %q, want none", f.Node.Rules)
	}
}

func TestDeriver_Node_Recursive(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"self", reflect.TypeOf(node{})},
		{"mutual", reflect.TypeOf(left{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeriver()
			_, err := d.Node(tt.typ)
			if !errors.Is(err, ErrMalformedSchema) {
				t.Fatalf("Node() error = %v, want ErrMalformedSchema", err)
			}

			r := NewDeriver(AllowRecursive())
			if _, err := r.Node(tt.typ); err != nil {
				t.Errorf("Node() with AllowRecursive error = %v", err)
			}
		})
	}
}

func TestDeriver_Node_InvalidRules(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"unknown validator", reflect.TypeOf(struct {
			A string `validate:"no_such_rule"`
		}{})},
		{"bad parameter", reflect.TypeOf(struct {
			A int `validate:"min=abc"`
		}{})},
		{"dive on scalar", reflect.TypeOf(struct {
			A int `validate:"dive,min=1"`
		}{})},
		{"rules on object", reflect.TypeOf(struct {
			A board `validate:"min=1"`
		}{})},
		{"int map key", reflect.TypeOf(map[int]string{})},
		{"channel", reflect.TypeOf(make(chan int))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDeriver().Node(tt.typ)
			if !errors.Is(err, ErrMalformedSchema) {
				t.Errorf("Node() error = %v, want ErrMalformedSchema", err)
			}
		})
	}
}

func TestDeriver_Node_Embedded(t *testing.T) {
	d := NewDeriver()
	if _, err := d.Node(reflect.TypeOf(withEmbedded{})); err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	obj := d.Defs()["withEmbedded"]
	if len(obj.Fields) != 2 || obj.Fields[0].Name != "id" || obj.Fields[1].Name != "name" {
		t.Errorf("fields = %+v, want id and name", obj.Fields)
	}
}

func TestDeriver_Params(t *testing.T) {
	d := NewDeriver()
	params, err := d.Params(reflect.TypeOf(lookup{}))
	if err != nil {
		t.Fatalf("Params() error = %v", err)
	}
	if len(params) != 3 {
		t.Fatalf("len(params) = %d, want 3", len(params))
	}

	want := []struct {
		name     string
		in       ParamIn
		kind     Kind
		required bool
	}{
		{"name", InPath, KindString, true},
		{"switch_sides", InQuery, KindBoolean, false},
		{"limit", InQuery, KindInteger, true},
	}
	for i, w := range want {
		p := params[i]
		if p.Name != w.name || p.In != w.in || p.Node.Kind != w.kind || p.Required != w.required {
			t.Errorf("params[%d] = %s %s %s %v, want %+v", i, p.Name, p.In, p.Node.Kind, p.Required, w)
		}
	}
	if params[2].Node.Rules != "min=1" {
		t.Errorf("limit rules = %q, want min=1", params[2].Node.Rules)
	}

	if HasBody(reflect.TypeOf(lookup{})) {
		t.Error("HasBody(lookup) = true, want false")
	}
	if !HasBody(reflect.TypeOf(evalRequest{})) {
		t.Error("HasBody(evalRequest) = false, want true")
	}
}

func TestDeriver_Params_NotPrimitive(t *testing.T) {
	type bad struct {
		IDs []string `query:"ids"`
	}
	_, err := NewDeriver().Params(reflect.TypeOf(bad{}))
	if !errors.Is(err, ErrMalformedSchema) {
		t.Errorf("Params() error = %v, want ErrMalformedSchema", err)
	}
}

func TestDeriver_Clone(t *testing.T) {
	d := NewDeriver()
	c := d.Clone()
	if _, err := c.Node(reflect.TypeOf(board{})); err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	if len(d.Defs()) != 0 {
		t.Errorf("original defs = %v, want empty", d.Defs().Names())
	}
	if len(c.Defs()) != 1 {
		t.Errorf("clone defs = %v, want [board]", c.Defs().Names())
	}
}

func TestDefs_Resolve(t *testing.T) {
	d := NewDeriver()
	ref, err := d.Node(reflect.TypeOf(evalRequest{}))
	if err != nil {
		t.Fatalf("Node() error = %v", err)
	}
	obj, err := d.Defs().Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if obj.Kind != KindObject {
		t.Errorf("Resolve() kind = %s, want object", obj.Kind)
	}

	_, err = Defs{}.Resolve(&Node{Kind: KindRef, Ref: "missing"})
	if !errors.Is(err, ErrMalformedSchema) {
		t.Errorf("Resolve(missing) error = %v, want ErrMalformedSchema", err)
	}

	refs := d.Defs().References(ref)
	if !reflect.DeepEqual(refs, []string{"board", "evalRequest"}) {
		t.Errorf("References() = %v", refs)
	}
}
