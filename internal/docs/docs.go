// Package docs loads, validates and serves the OpenAPI description of the
// life manager HTTP API.
package docs

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var embeddedSpec []byte

// Spec is a parsed OpenAPI document with its source bytes
type Spec struct {
	Doc  *openapi3.T
	Raw  []byte
	JSON []byte
}

// Stats summarizes a document
type Stats struct {
	Paths      int
	Operations int
	Schemas    int
}

// Embedded returns the OpenAPI source compiled into the binary
func Embedded() []byte {
	out := make([]byte, len(embeddedSpec))
	copy(out, embeddedSpec)
	return out
}

// LoadEmbedded parses the compiled-in document
func LoadEmbedded() (*Spec, error) {
	return Load(embeddedSpec)
}

// LoadFile parses the document at path
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return Load(data)
}

// Load parses a YAML or JSON OpenAPI document
func Load(data []byte) (*Spec, error) {
	// Parse YAML to JSON
	var specData interface{}
	if err := yaml.Unmarshal(data, &specData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	jsonData, err := json.Marshal(specData)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to JSON: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(jsonData)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}

	return &Spec{Doc: doc, Raw: data, JSON: jsonData}, nil
}

// Validate checks the document against the OpenAPI 3 rules
func (s *Spec) Validate(ctx context.Context) error {
	if err := s.Doc.Validate(ctx); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Stats counts paths, operations and schemas
func (s *Spec) Stats() Stats {
	stats := Stats{}
	if s.Doc.Paths != nil {
		stats.Paths = s.Doc.Paths.Len()
		for _, item := range s.Doc.Paths.Map() {
			stats.Operations += len(item.Operations())
		}
	}
	if s.Doc.Components != nil {
		stats.Schemas = len(s.Doc.Components.Schemas)
	}
	return stats
}

// Routes lists "METHOD /path" for every documented operation, sorted
func (s *Spec) Routes() []string {
	var routes []string
	if s.Doc.Paths == nil {
		return routes
	}
	for path, item := range s.Doc.Paths.Map() {
		for method := range item.Operations() {
			routes = append(routes, strings.ToUpper(method)+" "+path)
		}
	}
	sort.Strings(routes)
	return routes
}
