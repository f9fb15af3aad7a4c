package oncology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var catalogSchemaBytes = []byte(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {"$ref": "#/definitions/trial"},
  "definitions": {
    "trial": {
      "type": "object",
      "required": ["id", "title", "phase", "eligibility"],
      "properties": {
        "id": {"type": "string", "pattern": "^NCT[0-9]{8}$"},
        "title": {"type": "string", "minLength": 1},
        "phase": {"type": "string", "pattern": "^[1-4](/[1-4])?$"},
        "conditions": {"type": "array", "items": {"type": "string"}},
        "interventions": {"type": "array", "items": {"type": "string"}},
        "eligibility": {
          "type": "object",
          "properties": {
            "stage": {"type": "array", "items": {"type": "string"}},
            "markers": {"type": "array", "items": {"type": "string"}},
            "prior_treatment": {"type": "string"},
            "performance_status": {"type": "string", "pattern": "^[0-4](-[0-4])?$"},
            "brain_metastases": {"type": "string"}
          },
          "additionalProperties": false
        },
        "locations": {"type": "array", "items": {"type": "string"}},
        "status": {"type": "string"},
        "url": {"type": "string", "format": "uri"}
      },
      "additionalProperties": false
    }
  }
}`)

var catalogSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("trial_catalog.json", bytes.NewReader(catalogSchemaBytes)); err != nil {
		return nil, fmt.Errorf("add trial catalog schema: %w", err)
	}
	return compiler.Compile("trial_catalog.json")
})

// ValidateCatalog checks a YAML trial list against the catalog schema. Phase
// and performance status must be quoted strings so that "1/2" and "0-1"
// survive decoding.
func ValidateCatalog(data []byte) error {
	schema, err := catalogSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse trial catalog: %w", err)
	}
	// yaml decodes integers as int; the validator wants JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode trial catalog: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode trial catalog: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("trial catalog: %w", err)
	}
	return nil
}
