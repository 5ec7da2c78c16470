package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

const schemaVersion = "http://json-schema.org/draft-07/schema#"

// ToJSONSchema converts a struct to an inlined JSON schema.
func ToJSONSchema[T any](t T) (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	schema := r.Reflect(t)

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}

// MarshalSchema stamps title, description and draft version on schema and
// returns it as indented JSON.
func MarshalSchema(schema *jsonschema.Schema, title, description string) (string, error) {
	schema.Title = title
	schema.Description = description
	schema.Version = schemaVersion

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
