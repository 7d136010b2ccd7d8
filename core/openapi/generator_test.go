package openapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/artpar/wildgate/core/registry"
	"github.com/artpar/wildgate/core/schema"
)

type Position struct {
	Pips [26]int `json:"pips" validate:"dive,min=-15,max=15" doc:"checker counts per point"`
	XOff int     `json:"x_off,omitempty" validate:"gte=0,lte=15"`
}

type EvalRequest struct {
	Position Position `json:"position"`
}

type Probabilities struct {
	WinNormal float32 `json:"win_normal" example:"0.5"`
	Equity    float32 `json:"equity"`
}

type PositionRequest struct {
	Name string `path:"name" validate:"oneof=starting" doc:"position name"`
	Flip bool   `query:"switch_sides"`
}

func buildRegistry(t *testing.T, gen *Generator) *registry.Registry {
	t.Helper()
	r := registry.New(registry.WithRenderer(gen.Render))
	ops := []registry.Operation{
		{
			ID: "evaluatePosition", Method: http.MethodPost, Path: "/v1/eval",
			Summary: "Evaluate a position", Tags: []string{"engine"},
			Input:     reflect.TypeOf(EvalRequest{}),
			Responses: map[int]reflect.Type{http.StatusOK: reflect.TypeOf(Probabilities{})},
		},
		{
			ID: "getPosition", Method: http.MethodGet, Path: "/v1/positions/{name}",
			Tags:      []string{"positions"},
			Input:     reflect.TypeOf(PositionRequest{}),
			Responses: map[int]reflect.Type{http.StatusOK: reflect.TypeOf(Position{})},
		},
	}
	for _, op := range ops {
		if _, err := r.Register(op); err != nil {
			t.Fatalf("Register(%s) error = %v", op.ID, err)
		}
	}
	return r
}

func TestNewGenerator_Defaults(t *testing.T) {
	gen := NewGenerator(Info{})
	if gen.info.Title != "wildgate API" {
		t.Errorf("default title = %q", gen.info.Title)
	}
	if gen.info.Version != "1.0.0" {
		t.Errorf("default version = %q", gen.info.Version)
	}
}

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator(Info{Title: "Test", Version: "2.0.0"})
	gen.AddServer("http://localhost:8080", "local")
	gen.DescribeTag("engine", "Position evaluation")
	r := buildRegistry(t, gen)

	spec, err := gen.Generate(r.Operations(), r.Defs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if spec.OpenAPI != "3.0.3" {
		t.Errorf("OpenAPI = %q, want 3.0.3", spec.OpenAPI)
	}
	if len(spec.Tags) != 2 || spec.Tags[0].Name != "engine" || spec.Tags[0].Description != "Position evaluation" {
		t.Errorf("Tags = %+v", spec.Tags)
	}
	if len(spec.Servers) != 1 {
		t.Errorf("Servers = %+v", spec.Servers)
	}

	eval := spec.Paths["/v1/eval"].Post
	if eval == nil {
		t.Fatal("POST /v1/eval missing")
	}
	if eval.OperationID != "evaluatePosition" {
		t.Errorf("OperationID = %q", eval.OperationID)
	}
	if got := eval.RequestBody.Content["application/json"].Schema.Ref; got != "#/components/schemas/EvalRequest" {
		t.Errorf("request schema ref = %q", got)
	}
	for _, code := range []string{"200", "400", "422", "500", "503"} {
		if _, ok := eval.Responses[code]; !ok {
			t.Errorf("eval response %s missing", code)
		}
	}
	if _, ok := eval.Responses["404"]; ok {
		t.Error("eval should not declare 404 without path parameters")
	}
	if got := eval.Responses["400"].Content["application/json"].Schema.Ref; got != "#/components/schemas/ApiErrorEnvelope" {
		t.Errorf("400 schema ref = %q", got)
	}

	get := spec.Paths["/v1/positions/{name}"].Get
	if get == nil {
		t.Fatal("GET /v1/positions/{name} missing")
	}
	if get.RequestBody != nil {
		t.Error("GET should have no request body")
	}
	if len(get.Parameters) != 2 {
		t.Fatalf("Parameters = %+v", get.Parameters)
	}
	name := get.Parameters[0]
	if name.In != "path" || !name.Required || name.Description != "position name" {
		t.Errorf("name parameter = %+v", name)
	}
	if !reflect.DeepEqual(name.Schema.Enum, []any{"starting"}) {
		t.Errorf("name enum = %v", name.Schema.Enum)
	}
	if get.Parameters[1].Required {
		t.Error("switch_sides should be optional")
	}
	if _, ok := get.Responses["404"]; !ok {
		t.Error("getPosition should declare 404")
	}
}

func TestGenerator_Schemas(t *testing.T) {
	gen := NewGenerator(Info{})
	r := buildRegistry(t, gen)
	spec, err := gen.Generate(r.Operations(), r.Defs())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, name := range []string{"Position", "EvalRequest", "Probabilities", "ApiError", "ApiErrorEnvelope", "Violation"} {
		if spec.Components.Schemas[name] == nil {
			t.Errorf("component %s missing", name)
		}
	}

	pos := spec.Components.Schemas["Position"]
	if !reflect.DeepEqual(pos.Required, []string{"pips"}) {
		t.Errorf("Position.Required = %v", pos.Required)
	}
	pips := pos.Properties["pips"]
	if pips.Type != "array" || *pips.MinItems != 26 || *pips.MaxItems != 26 {
		t.Errorf("pips = %+v", pips)
	}
	if pips.Description != "checker counts per point" {
		t.Errorf("pips description = %q", pips.Description)
	}
	if *pips.Items.Minimum != -15 || *pips.Items.Maximum != 15 || pips.Items.Type != "integer" {
		t.Errorf("pips items = %+v", pips.Items)
	}

	win := spec.Components.Schemas["Probabilities"].Properties["win_normal"]
	if win.Type != "number" || win.Format != "float" || win.Example != 0.5 {
		t.Errorf("win_normal = %+v", win)
	}
}

func TestGenerator_ReservedName(t *testing.T) {
	type ApiError struct {
		Code int `json:"code"`
	}
	r := registry.New()
	_, err := r.Register(registry.Operation{
		ID: "x", Method: http.MethodGet, Path: "/x",
		Responses: map[int]reflect.Type{http.StatusOK: reflect.TypeOf(ApiError{})},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err = NewGenerator(Info{}).Generate(r.Operations(), r.Defs())
	if !errors.Is(err, schema.ErrMalformedSchema) {
		t.Errorf("Generate() error = %v, want ErrMalformedSchema", err)
	}
}

func TestGenerator_Render_YAMLMatchesJSON(t *testing.T) {
	gen := NewGenerator(Info{Title: "Test"})
	r := buildRegistry(t, gen)
	if err := r.Freeze(); err != nil {
		t.Fatalf("Freeze() error = %v", err)
	}

	jsonDoc, err := r.Export()
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	yamlDoc, err := r.ExportYAML()
	if err != nil {
		t.Fatalf("ExportYAML() error = %v", err)
	}
	if strings.Contains(string(yamlDoc), "{\"") {
		t.Error("YAML output still contains flow-style JSON")
	}
	if !strings.Contains(string(yamlDoc), "\"200\":") && !strings.Contains(string(yamlDoc), "'200':") {
		t.Error("status keys should stay quoted strings in YAML")
	}

	var fromJSON, fromYAML any
	if err := json.Unmarshal(jsonDoc, &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if err := yaml.Unmarshal(yamlDoc, &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	a, _ := json.Marshal(fromJSON)
	b, err := json.Marshal(fromYAML)
	if err != nil {
		t.Fatalf("json.Marshal(yaml) error = %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("YAML and JSON documents differ:\n%s\n%s", a, b)
	}
}

func TestToYAML_KeepsOrder(t *testing.T) {
	out, err := ToYAML([]byte(`{"zeta": 1, "alpha": {"b": [1, 2], "a": "x"}}`))
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "zeta: 1\nalpha:\n") {
		t.Errorf("ToYAML() = %q, want zeta before alpha", s)
	}
	if strings.Index(s, "b:") > strings.Index(s, "a: x") {
		t.Errorf("ToYAML() = %q, want b before a", s)
	}
	if strings.Contains(s, "[") || strings.Contains(s, "{") {
		t.Errorf("ToYAML() = %q, want block style", s)
	}
}
