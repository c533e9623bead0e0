package docs

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

// SwaggerUIConfig holds the values rendered into the documentation page
type SwaggerUIConfig struct {
	Title       string
	Version     string
	SpecURL     string
	DeepLinking bool
}

// SwaggerUIHandler provides interactive API documentation using Swagger UI
type SwaggerUIHandler struct {
	spec     *Spec
	template *template.Template
}

// NewSwaggerUIHandler creates a new Swagger UI handler
func NewSwaggerUIHandler(spec *Spec) *SwaggerUIHandler {
	return &SwaggerUIHandler{
		spec:     spec,
		template: template.Must(template.New("swagger").Parse(swaggerUITemplate)),
	}
}

// Router mounts the documentation routes on a gorilla/mux router
func (h *SwaggerUIHandler) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/docs", h.serveSwaggerUI).Methods(http.MethodGet)
	router.HandleFunc("/docs/openapi.json", h.serveOpenAPIJSON).Methods(http.MethodGet)
	router.HandleFunc("/docs/openapi.yaml", h.serveOpenAPIYAML).Methods(http.MethodGet)
	router.HandleFunc("/openapi.json", h.serveOpenAPIJSON).Methods(http.MethodGet)

	// Redirect root to docs
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
	})

	return router
}

// serveSwaggerUI serves the main Swagger UI HTML page
func (h *SwaggerUIHandler) serveSwaggerUI(w http.ResponseWriter, r *http.Request) {
	cfg := SwaggerUIConfig{
		Title:       "Life Manager API Documentation",
		SpecURL:     getBaseURL(r) + "/docs/openapi.json",
		DeepLinking: true,
	}
	if h.spec.Doc.Info != nil {
		cfg.Title = h.spec.Doc.Info.Title
		cfg.Version = h.spec.Doc.Info.Version
	}

	var buf bytes.Buffer
	if err := h.template.Execute(&buf, cfg); err != nil {
		http.Error(w, fmt.Sprintf("Template execution error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	_, _ = w.Write(buf.Bytes())
}

// serveOpenAPIJSON serves the OpenAPI specification in JSON format
func (h *SwaggerUIHandler) serveOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.spec.JSON)
}

// serveOpenAPIYAML serves the OpenAPI specification as written
func (h *SwaggerUIHandler) serveOpenAPIYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.spec.Raw)
}

// getBaseURL extracts the base URL from the request
func getBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	host := r.Host
	if forwarded := r.Header.Get("X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}

	return fmt.Sprintf("%s://%s", scheme, host)
}

const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}} v{{.Version}}</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.10.5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.5/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.5/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            SwaggerUIBundle({
                url: '{{.SpecURL}}',
                dom_id: '#swagger-ui',
                deepLinking: {{.DeepLinking}},
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                layout: "StandaloneLayout",
                validatorUrl: null
            });
        };
    </script>
</body>
</html>
`
