// Package config loads endpoint catalog files for the load generator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/mwhitfield/barrage/internal/loadgen"
)

// catalogSchema validates JSON catalog files before decoding.
const catalogSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["endpoints"],
  "properties": {
    "endpoints": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["method", "path", "weight"],
        "properties": {
          "method": {"type": "string", "minLength": 1},
          "path": {"type": "string", "minLength": 1},
          "weight": {"type": "number", "exclusiveMinimum": 0},
          "requiresAuth": {"type": "boolean"}
        }
      }
    }
  }
}`

var compiledCatalogSchema = jsonschema.MustCompileString("catalog.schema.json", catalogSchema)

type catalogFile struct {
	Endpoints []endpointEntry `json:"endpoints" yaml:"endpoints"`
}

type endpointEntry struct {
	Method       string  `json:"method" yaml:"method"`
	Path         string  `json:"path" yaml:"path"`
	Weight       float64 `json:"weight" yaml:"weight"`
	RequiresAuth bool    `json:"requiresAuth" yaml:"requiresAuth"`
}

// LoadCatalog reads an endpoint catalog from a YAML or JSON file, keyed by
// extension. JSON catalogs are validated against a schema first; both kinds
// pass through the core catalog invariants before being returned.
func LoadCatalog(path string) ([]loadgen.Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var file catalogFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := validateJSONCatalog(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (want .json, .yaml, or .yml)", ext)
	}

	endpoints := make([]loadgen.Endpoint, len(file.Endpoints))
	for i, e := range file.Endpoints {
		endpoints[i] = loadgen.Endpoint{
			Method:       strings.ToUpper(e.Method),
			Path:         e.Path,
			Weight:       e.Weight,
			RequiresAuth: e.RequiresAuth,
		}
	}

	if err := loadgen.ValidateCatalog(endpoints); err != nil {
		return nil, err
	}
	return endpoints, nil
}

func validateJSONCatalog(data []byte) error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing catalog: %w", err)
	}
	if err := compiledCatalogSchema.Validate(doc); err != nil {
		return fmt.Errorf("catalog failed schema validation: %w", err)
	}
	return nil
}

// DefaultCatalog is the built-in endpoint mix used when no catalog file is
// supplied: a typical REST API read/write blend.
func DefaultCatalog() []loadgen.Endpoint {
	return []loadgen.Endpoint{
		{Method: "GET", Path: "/api/users", Weight: 15},
		{Method: "GET", Path: "/api/users/{id}", Weight: 20},
		{Method: "GET", Path: "/api/products", Weight: 12},
		{Method: "GET", Path: "/api/products/{id}", Weight: 10},
		{Method: "GET", Path: "/api/orders", Weight: 10, RequiresAuth: true},
		{Method: "POST", Path: "/api/orders", Weight: 8, RequiresAuth: true},
		{Method: "PUT", Path: "/api/users/{id}", Weight: 5, RequiresAuth: true},
		{Method: "GET", Path: "/api/search", Weight: 12},
	}
}
