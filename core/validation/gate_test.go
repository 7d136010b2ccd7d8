package validation

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/wildgate/core/codec"
	"github.com/artpar/wildgate/core/schema"
)

type position struct {
	Pips [26]int `json:"pips" validate:"dive,min=-15,max=15"`
	XOff int     `json:"x_off,omitempty" validate:"min=0,max=15"`
}

type pair struct {
	First  string `json:"first" validate:"min=1"`
	Second int    `json:"second"`
}

type evalRequest struct {
	Position position `json:"position"`
	Notes    []string `json:"notes,omitempty" validate:"max=2,dive,oneof=quick deep"`
	Meta     *pair    `json:"meta,omitempty"`
}

type lookup struct {
	Name  string  `path:"name" validate:"oneof=starting empty"`
	Flip  bool    `query:"switch_sides"`
	Limit int     `query:"limit" validate:"required,min=1"`
	Ratio float64 `query:"ratio"`
}

func derive(t *testing.T, v any) (*schema.Node, schema.Defs) {
	t.Helper()
	d := schema.NewDeriver()
	n, err := d.Node(reflect.TypeOf(v))
	require.NoError(t, err)
	return n, d.Defs()
}

func validate(t *testing.T, body string, v any, opts Options) Outcome {
	t.Helper()
	tree, err := codec.Parse([]byte(body))
	require.NoError(t, err)
	n, defs := derive(t, v)
	return Validate(tree, n, defs, opts)
}

func paths(o Outcome) []string {
	var out []string
	for _, v := range o.Violations {
		out = append(out, v.Path)
	}
	return out
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"none missing", `{"first": "a", "second": 1}`, nil},
		{"first missing", `{"second": 1}`, []string{"first"}},
		{"second missing", `{"first": "a"}`, []string{"second"}},
		{"both missing", `{}`, []string{"first", "second"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := validate(t, tt.body, pair{}, Options{})
			assert.Equal(t, tt.want, paths(out))
			assert.Equal(t, tt.want == nil, out.Accepted())
		})
	}
}

func TestValidate_ReportsEveryIndex(t *testing.T) {
	body := `{"position": {"pips": [0, 16, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, -20, 0, 99]}}`
	out := validate(t, body, evalRequest{}, Options{})
	assert.Equal(t, []string{"position.pips[1]", "position.pips[23]", "position.pips[25]"}, paths(out))

	v := out.Violations[0]
	assert.Equal(t, "max=15", v.Expected)
	assert.Equal(t, "16", v.Actual)
	assert.Equal(t, "must be at most 15", v.Message)

	v = out.Violations[1]
	assert.Equal(t, "min=-15", v.Expected)
	assert.Equal(t, "must be at least -15", v.Message)
}

func TestValidate_ArrayLength(t *testing.T) {
	out := validate(t, `{"position": {"pips": [0, 1, 2]}}`, evalRequest{}, Options{})
	require.Len(t, out.Violations, 1)
	assert.Equal(t, "position.pips", out.Violations[0].Path)
	assert.Equal(t, "len=26", out.Violations[0].Expected)
	assert.Equal(t, "must have exactly 26 items", out.Violations[0].Message)
}

func TestValidate_KindMismatch(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		path   string
		actual string
	}{
		{"string for object", `{"position": "x"}`, "position", "string"},
		{"number for array", `{"position": {"pips": 5}}`, "position.pips", "integer"},
		{"float for integer", `{"position": {"pips": [], "x_off": 1.5}}`, "position.x_off", "1.5"},
		{"null for object", `{"position": null}`, "position", "null"},
		{"integer for string", `{"position": {"pips": []}, "meta": {"first": 1, "second": 2}}`, "meta.first", "integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := validate(t, tt.body, evalRequest{}, Options{})
			var found *Violation
			for i := range out.Violations {
				if out.Violations[i].Path == tt.path {
					found = &out.Violations[i]
				}
			}
			require.NotNil(t, found, "violations = %+v", out.Violations)
			assert.Equal(t, tt.actual, found.Actual)
		})
	}
}

func TestValidate_NullableFields(t *testing.T) {
	pips := `[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]`
	out := validate(t, `{"position": {"pips": `+pips+`}, "notes": null, "meta": null}`, evalRequest{}, Options{})
	assert.True(t, out.Accepted(), "violations = %+v", out.Violations)
}

func TestValidate_SliceRules(t *testing.T) {
	pips := `[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]`
	out := validate(t, `{"position": {"pips": `+pips+`}, "notes": ["quick", "slow", "deep"]}`, evalRequest{}, Options{})
	assert.Equal(t, []string{"notes", "notes[1]"}, paths(out))
}

func TestValidate_Strict(t *testing.T) {
	body := `{"first": "a", "second": 1, "third": true}`

	out := validate(t, body, pair{}, Options{})
	assert.True(t, out.Accepted())

	out = validate(t, body, pair{}, Options{Strict: true})
	require.Len(t, out.Violations, 1)
	assert.Equal(t, "third", out.Violations[0].Path)
	assert.Equal(t, "boolean", out.Violations[0].Actual)
}

func TestValidate_CaseVariantKeys(t *testing.T) {
	body := `{"first": "a", "second": 1, "SECOND": 999, "Third": true}`

	for _, strict := range []bool{false, true} {
		out := validate(t, body, pair{}, Options{Strict: strict})
		require.NotEmpty(t, out.Violations, "strict=%v", strict)
		assert.Equal(t, "SECOND", out.Violations[0].Path)
		assert.Equal(t, `field "second"`, out.Violations[0].Expected)
		assert.Equal(t, "integer", out.Violations[0].Actual)
	}
	assert.Len(t, validate(t, body, pair{}, Options{}).Violations, 1)
	assert.Equal(t, []string{"SECOND", "Third"}, paths(validate(t, body, pair{}, Options{Strict: true})))

	pips := `[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0]`
	out := validate(t, `{"position": {"pips": `+pips+`, "PIPS": [0, 1]}}`, evalRequest{}, Options{})
	assert.Equal(t, []string{"position.PIPS"}, paths(out))
}

func TestParams(t *testing.T) {
	params, err := schema.NewDeriver().Params(reflect.TypeOf(lookup{}))
	require.NoError(t, err)

	out := Params(params,
		map[string]string{"name": "starting"},
		url.Values{"switch_sides": {"true"}, "limit": {"3"}, "ratio": {"0.5"}},
		Options{})
	require.True(t, out.Accepted(), "violations = %+v", out.Violations)
	assert.Equal(t, map[string]any{
		"path.name":          "starting",
		"query.switch_sides": true,
		"query.limit":        int64(3),
		"query.ratio":        0.5,
	}, out.Params)

	out = Params(params,
		map[string]string{"name": "middle"},
		url.Values{"switch_sides": {"maybe"}, "ratio": {"x"}},
		Options{})
	assert.Equal(t, []string{"path.name", "query.switch_sides", "query.limit", "query.ratio"}, paths(out))
	assert.Empty(t, out.Params)
}

func TestOutcome_Err(t *testing.T) {
	var out Outcome
	assert.NoError(t, out.Err())

	out.Merge(Outcome{Violations: []Violation{{Path: "a", Message: "bad"}}})
	out.Merge(Outcome{Violations: []Violation{{Path: "b", Message: "worse"}}, Params: map[string]any{"query.x": int64(1)}})

	var rejected *RejectedError
	require.True(t, errors.As(out.Err(), &rejected))
	assert.Equal(t, []string{"a", "b"}, rejected.Paths())
	assert.Equal(t, "validation failed: a: bad; b: worse", rejected.Error())
	assert.Equal(t, int64(1), out.Params["query.x"])
}
