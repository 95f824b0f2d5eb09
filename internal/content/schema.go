// internal/content/schema.go
package content

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// packSchema describes the shape of an industry content pack document.
const packSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["industry", "displayName", "prompts", "narratives", "resources"],
  "properties": {
    "industry": {"type": "string", "enum": ["healthcare", "legal"]},
    "displayName": {"type": "string", "minLength": 1},
    "prompts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["capabilityId", "industry", "prompt", "helperText"],
        "properties": {
          "capabilityId": {"type": "string", "pattern": "^[a-z]+(-[a-z]+)*$"},
          "industry": {"type": "string", "enum": ["healthcare", "legal"]},
          "prompt": {"type": "string", "minLength": 1},
          "helperText": {"type": "string"}
        }
      }
    },
    "narratives": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["industry", "category", "tier", "headline", "body"],
        "properties": {
          "industry": {"type": "string", "enum": ["healthcare", "legal"]},
          "category": {
            "type": "string",
            "enum": ["Organization Foundations", "Product Lifecycle", "Data Infrastructure", "AI & Machine Learning"]
          },
          "tier": {"type": "string", "enum": ["emerging", "developing", "leading"]},
          "headline": {"type": "string", "minLength": 1},
          "body": {"type": "string", "minLength": 1}
        }
      }
    },
    "resources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "type", "url", "industry", "capabilities", "maturityTiers"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["case_study", "playbook", "webinar", "article", "whitepaper"]},
          "url": {"type": "string", "pattern": "^https?://"},
          "industry": {"type": "string", "enum": ["healthcare", "legal", "all"]},
          "capabilities": {"type": "array", "items": {"type": "string"}, "minItems": 1},
          "maturityTiers": {
            "type": "array",
            "items": {"type": "string", "enum": ["emerging", "developing", "leading"]},
            "minItems": 1
          }
        }
      }
    }
  }
}`

var packSchemaLoader = gojsonschema.NewStringLoader(packSchema)

// validatePackDocument checks a raw pack document against packSchema.
func validatePackDocument(name string, data []byte) error {
	result, err := gojsonschema.Validate(packSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("content pack %s: schema validation error: %w", name, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("content pack %s: %s", name, strings.Join(errs, "; "))
	}

	return nil
}
