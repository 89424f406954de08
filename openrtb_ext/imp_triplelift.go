package openrtb_ext

import (
	"encoding/json"
)

// ExtImpTriplelift defines the contract for an ad slot's TripleLift bidder params.
type ExtImpTriplelift struct {
	InvCode string   `json:"inventoryCode"`
	Floor   *float64 `json:"floor,omitempty"`
	// Video holds ORTB video fields which mediaTypes.video overrides.
	Video json.RawMessage `json:"video,omitempty"`
}
