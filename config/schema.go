package config

//go:generate go run ../tools/schema-generator -out ../schema/elementipelago.schema.json

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema of elementipelago.yml. Extension
// sections such as `logging` are allowed but not described.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		ExpandedStruct:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
	}

	schema := r.Reflect(&Config{})
	schema.Title = "Elementipelago Configuration"
	schema.Description = "Schema for elementipelago.yml."
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.AdditionalProperties = jsonschema.TrueSchema

	return json.MarshalIndent(schema, "", "  ")
}
