package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/buger/jsonparser"
	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	testCases := []struct {
		description string
		given       string
		expected    bool
	}{
		{description: "blank", given: "", expected: true},
		{description: "whitespace", given: "  ", expected: true},
		{description: "null", given: "null", expected: true},
		{description: "empty-object", given: "{ }", expected: true},
		{description: "empty-array", given: "[]", expected: true},
		{description: "empty-string", given: `""`, expected: true},
		{description: "object", given: `{"a":1}`, expected: false},
		{description: "object-with-null-value", given: `{"a":null}`, expected: false},
		{description: "array", given: `[1]`, expected: false},
		{description: "string", given: `"x"`, expected: false},
		{description: "number", given: `0`, expected: false},
		{description: "false", given: `false`, expected: false},
	}

	for _, test := range testCases {
		assert.Equal(t, test.expected, IsEmpty([]byte(test.given)), test.description)
	}
}

func TestValueType(t *testing.T) {
	assert.Equal(t, jsonparser.NotExist, ValueType(nil))
	assert.Equal(t, jsonparser.Object, ValueType([]byte(`{"id":"a"}`)))
	assert.Equal(t, jsonparser.Array, ValueType([]byte(`[]`)))
	assert.Equal(t, jsonparser.String, ValueType([]byte(`"abc"`)))
	assert.Equal(t, jsonparser.Null, ValueType([]byte(`null`)))
	assert.Equal(t, jsonparser.Number, ValueType([]byte(`12`)))
}

func TestClone(t *testing.T) {
	original := json.RawMessage(`{"a":1}`)
	clone := Clone(original)
	clone[2] = 'b'

	assert.Equal(t, `{"a":1}`, string(original))
	assert.Nil(t, Clone(nil))
}
