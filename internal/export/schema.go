package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"billtools/pkg/models"
)

// ErrInvalidFact is returned when a fact does not match FactSchema.
var ErrInvalidFact = errors.New("fact does not match schema")

// FactSchema is the JSON schema of a serialized ExtractedFact.
const FactSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["document_id", "file_name", "bill_period", "utility_type", "amount",
               "usage", "provider", "date", "meter_number", "emissions", "confidence",
               "field_confidence", "status"],
  "properties": {
    "document_id": {"type": "string", "pattern": "^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$"},
    "file_name": {"type": "string", "minLength": 1},
    "bill_period": {"type": "string"},
    "utility_type": {"enum": ["electricity", "fuel", "water", "gas", "unknown"]},
    "type_confidence": {"type": "integer", "minimum": 0, "maximum": 100},
    "amount": {"type": "number", "minimum": 0},
    "usage": {
      "type": "object",
      "required": ["value", "unit"],
      "properties": {
        "value": {"type": "number", "minimum": 0},
        "unit": {"type": "string"}
      }
    },
    "price_per_unit": {"type": "number", "minimum": 0},
    "provider": {"type": "string"},
    "date": {"type": "string"},
    "meter_number": {"type": "string"},
    "emissions": {
      "type": "object",
      "required": ["total", "breakdown"],
      "properties": {
        "total": {"type": "number", "minimum": 0},
        "breakdown": {
          "type": "object",
          "required": ["type", "factor", "formula", "calculation"],
          "properties": {
            "factor": {"type": "number", "minimum": 0},
            "formula": {"type": "string", "minLength": 1},
            "calculation": {"type": "string", "minLength": 1}
          }
        }
      }
    },
    "confidence": {"type": "integer", "minimum": 0, "maximum": 100},
    "field_confidence": {
      "type": "object",
      "additionalProperties": {"type": "integer", "minimum": 0, "maximum": 100}
    },
    "status": {"enum": ["extracted", "needs_review", "degraded"]}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func factSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("fact.json", strings.NewReader(FactSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("fact.json")
	})
	return compiledSchema, schemaErr
}

// Validate checks the JSON form of f against FactSchema.
func Validate(f *models.ExtractedFact) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal fact: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateJSON checks one serialized fact against FactSchema.
func ValidateJSON(data []byte) error {
	schema, err := factSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal fact: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFact, err)
	}
	return nil
}
