package jsonutil

import (
	"bytes"
	"encoding/json"

	"github.com/buger/jsonparser"
)

// IsEmpty reports whether data carries no signal: absent, null, an empty object, an empty
// array or an empty string.
func IsEmpty(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return true
	}

	switch trimmed[0] {
	case 'n':
		return bytes.Equal(trimmed, []byte("null"))
	case '"':
		return bytes.Equal(trimmed, []byte(`""`))
	case '{':
		empty := true
		jsonparser.ObjectEach(trimmed, func(_ []byte, _ []byte, _ jsonparser.ValueType, _ int) error {
			empty = false
			return nil
		})
		return empty
	case '[':
		empty := true
		jsonparser.ArrayEach(trimmed, func(_ []byte, _ jsonparser.ValueType, _ int, _ error) {
			empty = false
		})
		return empty
	}
	return false
}

// ValueType reports the JSON type of data, or jsonparser.NotExist when data is blank.
func ValueType(data []byte) jsonparser.ValueType {
	if len(bytes.TrimSpace(data)) == 0 {
		return jsonparser.NotExist
	}
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return jsonparser.Unknown
	}
	return dataType
}

// Clone returns an independent copy of data, so callers can mutate the result without touching
// read-only input.
func Clone(data json.RawMessage) json.RawMessage {
	if data == nil {
		return nil
	}
	clone := make(json.RawMessage, len(data))
	copy(clone, data)
	return clone
}
