package triplelift

import (
	"encoding/json"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/util/jsonutil"
	"github.com/tidwall/gjson"
)

const instreamContext = "instream"

// Buckets partitions the slots of a cycle by payload. A slot's index within its bucket is the
// imp id the exchange echoes back.
type Buckets struct {
	Standard []adapters.AdSlot
	Native   []adapters.AdSlot
}

// Slots returns the bucket for kind.
func (b Buckets) Slots(kind openrtb_ext.PayloadKind) []adapters.AdSlot {
	if kind == openrtb_ext.PayloadKindNative {
		return b.Native
	}
	return b.Standard
}

// ClassifyAdUnits splits slots into the standard (banner or video) and native buckets,
// preserving order. A slot declaring neither is left out of both. It is pure, so running it at
// request time and at response time over the same slots yields identical buckets.
func ClassifyAdUnits(slots []adapters.AdSlot) Buckets {
	var buckets Buckets
	for _, slot := range slots {
		switch {
		case declared(slot.MediaTypes.Banner) || declared(slot.MediaTypes.Video):
			buckets.Standard = append(buckets.Standard, slot)
		case declared(slot.MediaTypes.Native):
			buckets.Native = append(buckets.Native, slot)
		}
	}
	return buckets
}

func declared(mediaType json.RawMessage) bool {
	switch jsonutil.ValueType(mediaType) {
	case jsonparser.NotExist, jsonparser.Null, jsonparser.Unknown:
		return false
	}
	return true
}

// isInstream reports whether the slot's video context is "instream", ignoring case.
func isInstream(slot *adapters.AdSlot) bool {
	if !declared(slot.MediaTypes.Video) {
		return false
	}
	context := gjson.GetBytes(slot.MediaTypes.Video, "context")
	return context.Type == gjson.String && strings.EqualFold(context.Str, instreamContext)
}

func isNative(slot *adapters.AdSlot) bool {
	return declared(slot.MediaTypes.Native) && declared(slot.NativeParams)
}

// floorMediaType derives the media type used to query a floor provider.
func floorMediaType(slot *adapters.AdSlot) openrtb_ext.BidType {
	if isInstream(slot) {
		return openrtb_ext.BidTypeVideo
	}
	if isNative(slot) {
		return openrtb_ext.BidTypeNative
	}
	return openrtb_ext.BidTypeBanner
}
