package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	definition: string
	confidence: number & >=0 & <=1
}`

func TestValidateJSON_Accepts(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{"definition": "a term", "confidence": 0.8}`))
	assert.NoError(t, err)
}

func TestValidateJSON_RejectsMissingField(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{"definition": "a term"}`))
	assert.Error(t, err)
}

func TestValidateJSON_RejectsWrongType(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{"definition": 7, "confidence": 0.8}`))
	assert.Error(t, err)
}

func TestValidateJSON_RejectsOutOfRange(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{"definition": "a term", "confidence": 1.5}`))
	assert.Error(t, err)
}

func TestValidateJSON_RejectsMalformedJSON(t *testing.T) {
	err := ValidateJSON(testSchema, []byte(`{"definition": `))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response JSON")
}

func TestTrimJSONFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, trimJSONFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, trimJSONFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, trimJSONFence(`{"a":1}`))
}
