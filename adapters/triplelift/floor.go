package triplelift

import (
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/floors"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/util/ptrutil"
)

// resolveFloor asks the slot's floor provider first and falls back to the static params floor
// when there is no provider or its answer is unusable. Nil means no floor is asserted.
func resolveFloor(slot *adapters.AdSlot, params *openrtb_ext.ExtImpTriplelift) *float64 {
	if slot.Floors != nil {
		price, ok := slot.Floors.GetFloor(floors.NewQuery(floorMediaType(slot)))
		if ok {
			if value, ok := price.Value(); ok {
				return ptrutil.ToPtr(value)
			}
		}
	}
	return params.Floor
}
