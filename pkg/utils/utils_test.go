package utils

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/suite"
)

type UtilsTestSuite struct {
	suite.Suite
}

func TestUtilsSuite(t *testing.T) {
	suite.Run(t, new(UtilsTestSuite))
}

// TestConfig is a sample config struct for testing
type TestConfig struct {
	Name    string   `json:"name" jsonschema:"description=The name of the config"`
	Value   int      `json:"value" jsonschema:"description=A numeric value,minimum=1"`
	Enabled bool     `json:"enabled"`
	Tags    []string `json:"tags,omitempty"`
}

// NestedConfig is a sample nested config struct for testing
type NestedConfig struct {
	ID     string     `json:"id"`
	Config TestConfig `json:"config"`
}

func (suite *UtilsTestSuite) TestToJSONSchemaInlinesDefinitions() {
	schema, err := ToJSONSchema(NestedConfig{})
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))

	suite.NotContains(result, "$ref")
	suite.NotContains(result, "$defs")
	suite.Contains(result, "properties")
	suite.Contains(schema, "A numeric value")
}

func (suite *UtilsTestSuite) TestToJSONSchemaPrimitive() {
	schema, err := ToJSONSchema(42)
	suite.Require().NoError(err)
	suite.Contains(schema, "integer")
}

func (suite *UtilsTestSuite) TestMarshalSchema() {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	schema := reflector.Reflect(&TestConfig{})

	out, err := MarshalSchema(schema, "test-config", "A test config")
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &result))
	suite.Equal("test-config", result["title"])
	suite.Equal("A test config", result["description"])
	suite.Equal(schemaVersion, result["$schema"])
	suite.Contains(out, "\n  ", "output is indented")
}
