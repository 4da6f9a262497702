package matrix

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON schema of flatci.yaml.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "name", "rows"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer"},
    "name": {"type": "string", "minLength": 1},
    "manifest": {"type": "string"},
    "package": {"type": "string"},
    "base_library": {"type": "string"},
    "trigger": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "events": {"type": "array", "items": {"enum": ["push", "pull_request"]}},
        "branches": {"type": "array", "items": {"type": "string", "minLength": 1}}
      }
    },
    "env": {"type": "object", "additionalProperties": {"type": "string"}},
    "phases": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "install": {"$ref": "#/definitions/argv"},
        "doctest": {"$ref": "#/definitions/argv"},
        "unit": {"$ref": "#/definitions/argv"}
      }
    },
    "rows": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "python": {"type": "string"},
          "base_version": {"type": "string"},
          "optionals": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "environment": {"type": "string"}
        }
      }
    }
  },
  "definitions": {
    "argv": {"type": "array", "minItems": 1, "items": {"type": "string"}}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// validateSchema checks a generically decoded matrix document against Schema.
func validateSchema(doc any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("matrix: schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("matrix: schema: %s", strings.Join(msgs, "; "))
}
