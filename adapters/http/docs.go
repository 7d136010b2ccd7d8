package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/wildgate/core/api"
	"github.com/artpar/wildgate/pkg/apierror"
)

// Documentation paths.
const (
	OpenAPIJSONPath = "/openapi.json"
	OpenAPIYAMLPath = "/openapi.yaml"
	DocsPath        = "/docs"
)

// DocsHandler serves the frozen export and the Swagger UI. The export bytes
// are read once, so every response carries the same document.
type DocsHandler struct {
	json []byte
	yaml []byte
	ui   http.HandlerFunc
}

// NewDocsHandler reads the export of a built service. A service without
// operations has nothing to document and every docs path answers 404.
func NewDocsHandler(svc *api.Service) (*DocsHandler, error) {
	h := &DocsHandler{}
	if svc == nil || svc.Len() == 0 {
		return h, nil
	}

	var err error
	if h.json, err = svc.OpenAPI(); err != nil {
		return nil, fmt.Errorf("docs: %w", err)
	}
	if h.yaml, err = svc.OpenAPIYAML(); err != nil {
		return nil, fmt.Errorf("docs: %w", err)
	}
	h.ui = httpSwagger.Handler(httpSwagger.URL(OpenAPIJSONPath))
	return h, nil
}

// Mount registers the documentation routes.
func (h *DocsHandler) Mount(r chi.Router) {
	r.Get(OpenAPIJSONPath, h.OpenAPIJSON)
	r.Get(OpenAPIYAMLPath, h.OpenAPIYAML)
	r.Get(DocsPath, h.Redirect)
	r.Get(DocsPath+"/", h.Redirect)
	r.Get(DocsPath+"/*", h.UI)
}

// OpenAPIJSON serves the JSON export.
func (h *DocsHandler) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	h.serve(w, h.json, "application/json")
}

// OpenAPIYAML serves the YAML export.
func (h *DocsHandler) OpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	h.serve(w, h.yaml, "application/yaml")
}

// Redirect sends /docs to the UI entry page.
func (h *DocsHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	if h.ui == nil {
		apierror.WriteNotFound(w, "No API operations are registered")
		return
	}
	http.Redirect(w, r, DocsPath+"/index.html", http.StatusFound)
}

// UI serves the Swagger UI assets.
func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	if h.ui == nil {
		apierror.WriteNotFound(w, "No API operations are registered")
		return
	}
	h.ui(w, r)
}

func (h *DocsHandler) serve(w http.ResponseWriter, doc []byte, contentType string) {
	if doc == nil {
		apierror.WriteNotFound(w, "No API operations are registered")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Write(doc)
}
