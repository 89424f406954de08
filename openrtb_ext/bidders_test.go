package openrtb_ext

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const schemaDirectory = "../static/bidder-params"

func TestBidderParamSchemas(t *testing.T) {
	validator, err := NewBidderParamsValidator(schemaDirectory)
	require.NoError(t, err)

	for _, bidder := range CoreBidderNames() {
		assert.NotEmpty(t, validator.Schema(bidder), string(bidder))
	}
}

func TestTripleliftParams(t *testing.T) {
	validator, err := NewBidderParamsValidator(schemaDirectory)
	require.NoError(t, err)

	testCases := []struct {
		description string
		params      string
		expectValid bool
	}{
		{description: "inventory-code", params: `{"inventoryCode":"foo"}`, expectValid: true},
		{description: "with-floor", params: `{"inventoryCode":"foo","floor":0.5}`, expectValid: true},
		{description: "with-video", params: `{"inventoryCode":"foo","video":{"mimes":["video/mp4"]}}`, expectValid: true},
		{description: "missing-code", params: `{"floor":0.5}`},
		{description: "code-not-string", params: `{"inventoryCode":1}`},
		{description: "floor-not-number", params: `{"inventoryCode":"foo","floor":"0.5"}`},
		{description: "not-an-object", params: `"foo"`},
		{description: "empty"},
	}

	for _, test := range testCases {
		err := validator.Validate(BidderTriplelift, json.RawMessage(test.params))
		if test.expectValid {
			assert.NoError(t, err, test.description)
		} else {
			assert.Error(t, err, test.description)
		}
	}
}

func TestGetBidderName(t *testing.T) {
	name, ok := GetBidderName("TripleLift")
	assert.True(t, ok)
	assert.Equal(t, BidderTriplelift, name)

	_, ok = GetBidderName("appnexus")
	assert.False(t, ok)
}

func TestUnknownBidderSchema(t *testing.T) {
	validator, err := NewBidderParamsValidator(schemaDirectory)
	require.NoError(t, err)
	assert.Error(t, validator.Validate("appnexus", json.RawMessage(`{}`)))
}
