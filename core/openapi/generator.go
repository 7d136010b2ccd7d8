package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/artpar/wildgate/core/registry"
	"github.com/artpar/wildgate/core/schema"
	"github.com/artpar/wildgate/pkg/apierror"
)

// Component names reserved for the error envelope.
const (
	ErrorSchema     = "ApiError"
	EnvelopeSchema  = "ApiErrorEnvelope"
	ViolationSchema = "Violation"
)

const jsonContent = "application/json"

// Generator creates OpenAPI specifications from registered operations.
type Generator struct {
	info    Info
	servers []Server
	tags    map[string]string
}

// NewGenerator creates a generator. Empty title and version get defaults.
func NewGenerator(info Info) *Generator {
	if info.Title == "" {
		info.Title = "wildgate API"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	return &Generator{info: info, tags: make(map[string]string)}
}

// AddServer adds a server URL.
func (g *Generator) AddServer(url, description string) {
	g.servers = append(g.servers, Server{URL: url, Description: description})
}

// DescribeTag sets the description shown for a tag.
func (g *Generator) DescribeTag(name, description string) {
	g.tags[name] = description
}

// Generate builds the document. ops are expected in registry order.
func (g *Generator) Generate(ops []registry.OperationDescriptor, defs schema.Defs) (*Spec, error) {
	spec := &Spec{
		OpenAPI: Version,
		Info:    g.info,
		Servers: g.servers,
		Paths:   make(map[string]PathItem),
		Components: Components{
			Schemas: make(map[string]*Schema, len(defs)+3),
		},
	}

	for _, name := range defs.Names() {
		switch name {
		case ErrorSchema, EnvelopeSchema, ViolationSchema:
			return nil, fmt.Errorf("%w: type name %q is reserved", schema.ErrMalformedSchema, name)
		}
		spec.Components.Schemas[name] = schemaFor(defs[name])
	}
	for name, s := range errorSchemas() {
		spec.Components.Schemas[name] = s
	}

	seenTags := make(map[string]bool)
	for _, op := range ops {
		item := spec.Paths[op.Path]
		if err := setOperation(&item, op.Method, g.operation(op)); err != nil {
			return nil, err
		}
		spec.Paths[op.Path] = item

		for _, tag := range op.Tags {
			if !seenTags[tag] {
				seenTags[tag] = true
				spec.Tags = append(spec.Tags, Tag{Name: tag, Description: g.tags[tag]})
			}
		}
	}

	// Sort tags alphabetically
	sort.Slice(spec.Tags, func(i, j int) bool {
		return spec.Tags[i].Name < spec.Tags[j].Name
	})

	return spec, nil
}

// Render is a registry.RenderFunc producing JSON and YAML.
func (g *Generator) Render(ops []registry.OperationDescriptor, defs schema.Defs) (registry.Rendered, error) {
	spec, err := g.Generate(ops, defs)
	if err != nil {
		return registry.Rendered{}, err
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return registry.Rendered{}, fmt.Errorf("marshal openapi: %w", err)
	}
	yml, err := ToYAML(data)
	if err != nil {
		return registry.Rendered{}, err
	}
	return registry.Rendered{JSON: data, YAML: yml}, nil
}

func (g *Generator) operation(op registry.OperationDescriptor) *Operation {
	o := &Operation{
		Tags:        op.Tags,
		Summary:     op.Summary,
		Description: op.Description,
		OperationID: op.ID,
		Deprecated:  op.Deprecated,
		Responses:   make(map[string]Response),
	}

	hasPathParams := false
	for _, p := range op.Params {
		o.Parameters = append(o.Parameters, Parameter{
			Name:        p.Name,
			In:          string(p.In),
			Description: p.Node.Description,
			Required:    p.Required,
			Schema:      schemaFor(p.Node),
		})
		if p.In == schema.InPath {
			hasPathParams = true
		}
	}

	if op.Body != nil {
		o.RequestBody = &RequestBody{
			Required: true,
			Content:  map[string]MediaType{jsonContent: {Schema: schemaFor(op.Body)}},
		}
	}

	for status, n := range op.Responses {
		r := Response{Description: statusText(status)}
		if n != nil {
			r.Content = map[string]MediaType{jsonContent: {Schema: schemaFor(n)}}
		}
		o.Responses[strconv.Itoa(status)] = r
	}

	errorStatuses := []int{http.StatusInternalServerError, http.StatusServiceUnavailable}
	if op.Body != nil || len(op.Params) > 0 {
		errorStatuses = append(errorStatuses, http.StatusBadRequest)
	}
	if op.Body != nil {
		errorStatuses = append(errorStatuses, http.StatusUnprocessableEntity)
	}
	if hasPathParams {
		errorStatuses = append(errorStatuses, http.StatusNotFound)
	}
	for _, status := range errorStatuses {
		code := strconv.Itoa(status)
		if _, declared := o.Responses[code]; declared {
			continue
		}
		o.Responses[code] = Response{
			Description: statusText(status),
			Content:     map[string]MediaType{jsonContent: {Schema: refTo(EnvelopeSchema)}},
		}
	}
	return o
}

func setOperation(item *PathItem, method string, op *Operation) error {
	var slot **Operation
	switch method {
	case http.MethodGet:
		slot = &item.Get
	case http.MethodPut:
		slot = &item.Put
	case http.MethodPost:
		slot = &item.Post
	case http.MethodDelete:
		slot = &item.Delete
	case http.MethodOptions:
		slot = &item.Options
	case http.MethodHead:
		slot = &item.Head
	case http.MethodPatch:
		slot = &item.Patch
	default:
		return fmt.Errorf("openapi: unsupported method %q", method)
	}
	if *slot != nil {
		return fmt.Errorf("openapi: %s declared twice on one path", method)
	}
	*slot = op
	return nil
}

// schemaFor converts a schema node.
func schemaFor(n *schema.Node) *Schema {
	if n == nil {
		return &Schema{}
	}
	if n.Kind == schema.KindRef {
		ref := refTo(n.Ref)
		if n.Description == "" && !n.Nullable {
			return ref
		}
		// Siblings of $ref are ignored in 3.0, so wrap it.
		return &Schema{AllOf: []*Schema{ref}, Description: n.Description, Nullable: n.Nullable}
	}

	s := &Schema{
		Format:      n.Format,
		Description: n.Description,
		Nullable:    n.Nullable,
	}
	switch n.Kind {
	case schema.KindAny:
		return s
	case schema.KindObject:
		s.Type = "object"
		s.Properties = make(map[string]*Schema, len(n.Fields))
		for _, f := range n.Fields {
			s.Properties[f.Name] = schemaFor(f.Node)
		}
		s.Required = n.RequiredFields()
	case schema.KindMap:
		s.Type = "object"
		s.AdditionalProperties = schemaFor(n.Items)
	case schema.KindArray:
		s.Type = "array"
		s.Items = schemaFor(n.Items)
	default:
		s.Type = string(n.Kind)
	}

	c := n.Constraints
	s.Minimum, s.Maximum = c.Minimum, c.Maximum
	s.ExclusiveMinimum, s.ExclusiveMaximum = c.ExclusiveMinimum, c.ExclusiveMaximum
	s.MinLength, s.MaxLength = c.MinLength, c.MaxLength
	s.MinItems, s.MaxItems = c.MinItems, c.MaxItems
	for _, v := range c.Enum {
		s.Enum = append(s.Enum, literal(n.Kind, v))
	}
	if n.Example != "" {
		s.Example = literal(n.Kind, n.Example)
	}
	return s
}

// literal types a tag value for its node kind.
func literal(kind schema.Kind, v string) any {
	if kind == schema.KindString {
		return v
	}
	var out any
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		return v
	}
	return out
}

func refTo(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

func statusText(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(status)
}

func errorSchemas() map[string]*Schema {
	kinds := make([]any, 0, len(apierror.Kinds()))
	for _, k := range apierror.Kinds() {
		kinds = append(kinds, string(k))
	}
	str := func() *Schema { return &Schema{Type: "string"} }

	return map[string]*Schema{
		EnvelopeSchema: {
			Type:       "object",
			Properties: map[string]*Schema{"error": refTo(ErrorSchema)},
			Required:   []string{"error"},
		},
		ErrorSchema: {
			Type: "object",
			Properties: map[string]*Schema{
				"kind":    {Type: "string", Enum: kinds},
				"status":  {Type: "integer", Format: "int32"},
				"message": str(),
				"details": {
					Type:                 "object",
					Description:          "Structured detail. Validation failures list violations; decode failures carry offset or path.",
					AdditionalProperties: &Schema{},
				},
				"reference": {
					Type:        "string",
					Format:      "uuid",
					Description: "Correlates a server error with the server log.",
				},
			},
			Required: []string{"kind", "status", "message"},
		},
		ViolationSchema: {
			Type: "object",
			Properties: map[string]*Schema{
				"path":     str(),
				"expected": str(),
				"actual":   str(),
				"message":  str(),
			},
			Required: []string{"path", "expected", "actual", "message"},
		},
	}
}
