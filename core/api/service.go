package api

import (
	"github.com/artpar/wildgate/core/registry"
	"github.com/artpar/wildgate/core/route"
)

// Service is the frozen result of a Builder.
type Service struct {
	registry *registry.Registry
	table    *route.Table
}

// Registry returns the frozen registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Dispatch finds the route for method and escaped path.
func (s *Service) Dispatch(method, path string) (route.Match, error) {
	return s.table.Dispatch(method, path)
}

// Routes returns every route sorted by path then method.
func (s *Service) Routes() []route.Entry {
	return s.table.Entries()
}

// Len returns the number of operations.
func (s *Service) Len() int {
	return s.registry.Len()
}

// OpenAPI returns the frozen JSON export.
func (s *Service) OpenAPI() ([]byte, error) {
	return s.registry.Export()
}

// OpenAPIYAML returns the frozen YAML export.
func (s *Service) OpenAPIYAML() ([]byte, error) {
	return s.registry.ExportYAML()
}
