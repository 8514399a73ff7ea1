package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ConfigSchema is the JSON schema the raw config file is checked against
// before unmarshaling. It guards types and ranges; cross-field rules live in
// Validate.
const ConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "escalation": {
      "type": "object",
      "properties": {
        "confidence_threshold": {"type": "number", "minimum": 0, "maximum": 1},
        "fallback_trigger": {"type": "integer", "minimum": 1},
        "repeat_trigger": {"type": "integer", "minimum": 1},
        "complex_request_words": {"type": "integer", "minimum": 1},
        "complex_confidence_ceiling": {"type": "number", "minimum": 0, "maximum": 1},
        "escalation_phrases": {"type": "array", "items": {"type": "string"}},
        "sensitive_keywords": {"type": "array", "items": {"type": "string"}}
      },
      "additionalProperties": false
    },
    "signals": {
      "type": "object",
      "properties": {
        "action_keywords": {"type": "array", "items": {"type": "string"}},
        "error_keywords": {"type": "array", "items": {"type": "string"}},
        "affirmative_words": {"type": "array", "items": {"type": "string"}}
      },
      "additionalProperties": false
    },
    "memory": {
      "type": "object",
      "properties": {
        "type": {"type": "string", "enum": ["buffer", "summary"]},
        "max_messages": {"type": "integer", "minimum": 1},
        "history_window": {"type": "integer", "minimum": 1},
        "summary_profile": {"type": "string"}
      },
      "additionalProperties": false
    },
    "sessions": {
      "type": "object",
      "properties": {
        "sweep_enabled": {"type": "boolean"},
        "sweep_schedule": {"type": "string"},
        "ttl_minutes": {"type": "integer", "minimum": 1}
      },
      "additionalProperties": false
    },
    "storage": {
      "type": "object",
      "properties": {
        "board_db": {"type": "string"},
        "ledger_file": {"type": "string"},
        "audit_file": {"type": "string"}
      },
      "additionalProperties": false
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "file": {"type": "string"},
        "console": {"type": "boolean"},
        "pretty": {"type": "boolean"},
        "redaction": {"type": "boolean"}
      },
      "additionalProperties": false
    },
    "ai": {
      "type": "object",
      "properties": {
        "profiles": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {
              "id": {"type": "string"},
              "provider": {"type": "string", "enum": ["openai", "anthropic"]},
              "api_key": {"type": "string"},
              "model": {"type": "string"}
            },
            "required": ["id", "provider", "api_key"],
            "additionalProperties": false
          }
        }
      },
      "additionalProperties": false
    },
    "data_dir": {"type": "string"}
  },
  "additionalProperties": false
}`

// ValidateSchema validates raw config JSON against the schema
func ValidateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(ConfigSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("config does not match schema: %s", strings.Join(msgs, "; "))
	}

	return nil
}
