// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// leadPayloadSchema describes the inbound lead shape accepted by the
// qualification workers. Budget is intentionally loose: CRM exports
// deliver it as a number, a string, or not at all, and coercion is
// handled downstream by the scoring engine.
const leadPayloadSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "email", "inquiry", "budget", "location", "timeframe"],
	"properties": {
		"name":      {"type": "string", "minLength": 1},
		"email":     {"type": "string", "minLength": 3, "pattern": "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$"},
		"inquiry":   {"type": "string", "minLength": 1},
		"budget":    {"type": ["number", "string", "null"]},
		"location":  {"type": "string"},
		"timeframe": {"type": "string"}
	}
}`

var leadSchema = gojsonschema.NewStringLoader(leadPayloadSchema)

// ValidateLeadPayload checks a raw lead document against the lead
// schema and returns a single aggregated error listing every violation.
func ValidateLeadPayload(payload []byte) error {
	return validate(gojsonschema.NewBytesLoader(payload))
}

func validate(loader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(leadSchema, loader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return fmt.Errorf("invalid lead payload: %s", strings.Join(violations, "; "))
}
