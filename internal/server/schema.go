package server

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Request schemas, compiled once at package init. Validation runs before
// decoding so malformed shapes are rejected with a usable message instead
// of a partial unmarshal.

const analyzeSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["actions"],
  "properties": {
    "actions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["kind", "timestamp"],
        "properties": {
          "kind": {
            "type": "string",
            "enum": ["insert", "delete", "cursor", "pause", "keydown", "keyup"]
          },
          "timestamp": {"type": "integer", "minimum": 0},
          "content": {"type": "string"},
          "pauseDurationMs": {"type": "integer", "minimum": 0},
          "dwellTimeMs": {"type": "number", "minimum": 0},
          "flightTimeMs": {"type": "number", "minimum": 0},
          "cursorRange": {
            "type": "object",
            "required": ["from", "to"],
            "properties": {
              "from": {"type": "integer", "minimum": 0},
              "to": {"type": "integer", "minimum": 0}
            }
          }
        }
      }
    },
    "referenceActions": {"type": "array"},
    "textContent": {"type": "string"},
    "submissionId": {"type": "string"}
  }
}`

const screenSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["events"],
  "properties": {
    "events": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "timestamp"],
        "properties": {
          "kind": {
            "type": "string",
            "enum": ["focus", "blur", "clipboard", "navigation"]
          },
          "timestamp": {"type": "integer", "minimum": 0},
          "content": {"type": "string"}
        }
      }
    },
    "submissionId": {"type": "string"}
  }
}`

var (
	analyzeSchema = jsonschema.MustCompileString("analyze.json", analyzeSchemaJSON)
	screenSchema  = jsonschema.MustCompileString("screen.json", screenSchemaJSON)
)

func validateAnalyzeRequest(r io.Reader) error {
	return validateAgainst(analyzeSchema, r)
}

func validateScreenRequest(r io.Reader) error {
	return validateAgainst(screenSchema, r)
}

func validateAgainst(schema *jsonschema.Schema, r io.Reader) error {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		// The full validation tree is too noisy for an API error.
		msg := err.Error()
		if i := strings.Index(msg, "\n"); i > 0 {
			msg = msg[:i]
		}
		return fmt.Errorf("request validation: %s", msg)
	}
	return nil
}
