// internal/api/schemas.go
package api

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "vendoreval-engine/internal/common/errors"
)

const costEntrySchemaJSON = `{
	"type": "object",
	"required": ["projectId", "vendorId", "category"],
	"properties": {
		"projectId":   {"type": "string", "minLength": 1},
		"vendorId":    {"type": "string", "minLength": 1},
		"category":    {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"year1":       {"type": "number"},
		"year2":       {"type": "number"},
		"year3":       {"type": "number"},
		"year4":       {"type": "number"},
		"year5":       {"type": "number"},
		"recurring":   {"type": "boolean"},
		"estimated":   {"type": "boolean"},
		"sourceNotes": {"type": "string"}
	}
}`

const costEntryPatchSchemaJSON = `{
	"type": "object",
	"properties": {
		"category":    {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"year1":       {"type": "number"},
		"year2":       {"type": "number"},
		"year3":       {"type": "number"},
		"year4":       {"type": "number"},
		"year5":       {"type": "number"},
		"recurring":   {"type": "boolean"},
		"estimated":   {"type": "boolean"},
		"sourceNotes": {"type": "string"}
	}
}`

const tcoOptionsSchemaJSON = `{
	"type": "object",
	"properties": {
		"years":        {"type": "integer", "minimum": 1, "maximum": 5},
		"discountRate": {"type": "number", "minimum": 0},
		"totalUsers":   {"type": "integer", "minimum": 0}
	}
}`

const scenarioSchemaJSON = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name":        {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"adjustments": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["variable", "type", "value"],
				"properties": {
					"variable": {"type": "string", "minLength": 1},
					"type":     {"type": "string", "enum": ["percent", "fixed", "multiplier"]},
					"value":    {"type": "number"}
				}
			}
		}
	}
}`

const roiSchemaJSON = `{
	"type": "object",
	"required": ["benefitBreakdown"],
	"properties": {
		"benefitBreakdown": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["category"],
				"properties": {
					"category":    {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"annualValue": {"type": "number"},
					"yearValues": {
						"type": "array",
						"maxItems": 5,
						"items": {"type": ["number", "null"]}
					}
				}
			}
		},
		"riskAdjustment":   {"type": "number", "minimum": 0, "maximum": 100},
		"methodologyNotes": {"type": "string"}
	}
}`

var (
	costEntrySchema      = mustSchema(costEntrySchemaJSON)
	costEntryPatchSchema = mustSchema(costEntryPatchSchemaJSON)
	tcoOptionsSchema     = mustSchema(tcoOptionsSchemaJSON)
	scenarioSchema       = mustSchema(scenarioSchemaJSON)
	roiSchema            = mustSchema(roiSchemaJSON)
)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(err)
	}
	return schema
}

// validateBody checks raw JSON against a schema, collapsing schema failures
// into a single validation error.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return stderrors.NewValidationError("malformed JSON body")
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return stderrors.NewValidationError(strings.Join(messages, "; "))
	}
	return nil
}
