package triplelift

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prebid/openrtb/v20/adcom1"
	"github.com/prebid/openrtb/v20/openrtb2"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/firstpartydata"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/util/jsonutil"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	jsonpatch "gopkg.in/evanphx/json-patch.v4"
)

// Payload is the body of one exchange request.
type Payload struct {
	Imp  []Imp        `json:"imp"`
	User *PayloadUser `json:"user,omitempty"`
	Ext  *PayloadExt  `json:"ext,omitempty"`
}

type PayloadUser struct {
	Ext UserExt `json:"ext"`
}

type UserExt struct {
	EIDs []openrtb2.EID `json:"eids"`
}

// Imp is one slot inside a payload. ID is the slot's index in its bucket.
type Imp struct {
	ID     int                    `json:"id"`
	TagID  string                 `json:"tagid"`
	Floor  *float64               `json:"floor,omitempty"`
	Video  json.RawMessage        `json:"video,omitempty"`
	Banner *ImpBanner             `json:"banner,omitempty"`
	Native json.RawMessage        `json:"native,omitempty"`
	Sizes  []openrtb2.Format      `json:"sizes,omitempty"`
	FPD    *firstpartydata.AdUnit `json:"fpd,omitempty"`
}

type ImpBanner struct {
	Format []openrtb2.Format `json:"format"`
}

type kindPayload struct {
	kind    openrtb_ext.PayloadKind
	payload *Payload
}

// nativeSizes is the fixed size the exchange expects on every native imp.
var nativeSizes = []openrtb2.Format{{W: 1, H: 1}}

// buildPayloads assembles one payload per non-empty bucket, standard first. The identity
// records and the shared ext block are attached identically to every payload.
func (a *adapter) buildPayloads(ctx context.Context, buckets Buckets, slots []adapters.AdSlot, auction *adapters.AuctionContext) ([]kindPayload, []error) {
	var errs []error

	standardImps := make([]Imp, 0, len(buckets.Standard))
	for i := range buckets.Standard {
		imp, impErrs := buildStandardImp(i, &buckets.Standard[i])
		errs = append(errs, impErrs...)
		standardImps = append(standardImps, imp)
	}

	nativeImps := make([]Imp, 0, len(buckets.Native))
	for i := range buckets.Native {
		imp, impErrs := buildNativeImp(i, &buckets.Native[i])
		errs = append(errs, impErrs...)
		nativeImps = append(nativeImps, imp)
	}

	eids, eidErrs := extractEIDs(slots)
	if len(eidErrs) > 0 {
		a.metrics.RecordIdentityWarning()
		errs = append(errs, eidErrs...)
	}

	ext, extErrs := a.buildExt(ctx, auction, slots)
	errs = append(errs, extErrs...)

	var payloads []kindPayload
	for _, candidate := range []kindPayload{
		{kind: openrtb_ext.PayloadKindStandard, payload: &Payload{Imp: standardImps}},
		{kind: openrtb_ext.PayloadKindNative, payload: &Payload{Imp: nativeImps}},
	} {
		// no request is sent for an empty bucket
		if len(candidate.payload.Imp) == 0 {
			continue
		}
		if len(eids) > 0 {
			candidate.payload.User = &PayloadUser{Ext: UserExt{EIDs: eids}}
		}
		candidate.payload.Ext = ext
		payloads = append(payloads, candidate)
	}
	return payloads, errs
}

func buildStandardImp(index int, slot *adapters.AdSlot) (Imp, []error) {
	var errs []error
	params, _ := parseParams(slot)
	imp := Imp{
		ID:    index,
		TagID: params.InvCode,
		Floor: resolveFloor(slot, params),
	}

	if isInstream(slot) {
		video, videoErrs := buildVideo(params.Video, slot.MediaTypes.Video)
		errs = append(errs, videoErrs...)
		imp.Video = video
	} else if declared(slot.MediaTypes.Banner) {
		formats, sizeErrs := normalizeSizes(bannerSizes(slot))
		errs = append(errs, sizeErrs...)
		imp.Banner = &ImpBanner{Format: formats}
	}

	fpd, err := adUnitFPD(slot)
	if err != nil {
		errs = append(errs, err)
	}
	imp.FPD = fpd
	return imp, errs
}

func buildNativeImp(index int, slot *adapters.AdSlot) (Imp, []error) {
	var errs []error
	params, _ := parseParams(slot)
	imp := Imp{
		ID:    index,
		TagID: params.InvCode,
		Floor: resolveFloor(slot, params),
		Sizes: nativeSizes,
	}

	if declared(slot.NativeParams) {
		native, sizeErrs := normalizeSizesAt(slot.NativeParams, "image.sizes")
		errs = append(errs, sizeErrs...)
		imp.Native = native
	}

	fpd, err := adUnitFPD(slot)
	if err != nil {
		errs = append(errs, err)
	}
	imp.FPD = fpd
	return imp, errs
}

// bannerSizes prefers the slot's sizes and falls back to mediaTypes.banner.sizes.
func bannerSizes(slot *adapters.AdSlot) []json.RawMessage {
	if len(slot.Sizes) > 0 {
		return slot.Sizes
	}
	sizes := gjson.GetBytes(slot.MediaTypes.Banner, "sizes")
	if !sizes.Exists() {
		return nil
	}
	return sizeList(json.RawMessage(sizes.Raw))
}

func adUnitFPD(slot *adapters.AdSlot) (*firstpartydata.AdUnit, error) {
	fpd, err := firstpartydata.ExtractAdUnitFPD(slot.Ortb2Imp)
	if err != nil {
		return nil, &errortypes.Warning{
			Message:     fmt.Sprintf("ortb2Imp of slot %s ignored: %v", slot.BidID, err),
			WarningCode: errortypes.InvalidFirstPartyDataWarningCode,
		}
	}
	return fpd, nil
}

// buildVideo shapes the ORTB video object of an instream slot. mediaTypes.video takes
// precedence over params.video; w and h fall back to the first playerSize pair, which is then
// removed.
func buildVideo(paramsVideo, mediaVideo json.RawMessage) (json.RawMessage, []error) {
	var errs []error

	video := jsonutil.Clone(mediaVideo)
	if declared(paramsVideo) {
		merged, err := jsonpatch.MergePatch(paramsVideo, mediaVideo)
		if err != nil {
			errs = append(errs, &errortypes.Warning{
				Message:     fmt.Sprintf("params.video ignored: %v", err),
				WarningCode: errortypes.InvalidVideoParamsWarningCode,
			})
		} else {
			video = merged
		}
	}

	var err error
	playerSize := gjson.GetBytes(video, "playerSize")
	if playerSize.Exists() {
		if pairs := sizeList(json.RawMessage(playerSize.Raw)); len(pairs) > 0 {
			pair := gjson.ParseBytes(pairs[0])
			for i, field := range []string{"w", "h"} {
				dim := pair.Get(fmt.Sprint(i))
				if falsy(gjson.GetBytes(video, field)) && dim.Type == gjson.Number {
					if video, err = sjson.SetRawBytes(video, field, []byte(dim.Raw)); err != nil {
						errs = append(errs, err)
					}
				}
			}
		}
		if video, err = sjson.DeleteBytes(video, "playerSize"); err != nil {
			errs = append(errs, err)
		}
	}

	if strings.EqualFold(gjson.GetBytes(video, "context").Str, instreamContext) {
		if video, err = sjson.SetBytes(video, "placement", adcom1.VideoPlacementInStream); err != nil {
			errs = append(errs, err)
		}
	}

	return video, errs
}

func falsy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return value.Num == 0
	case gjson.String:
		return value.Str == ""
	}
	return false
}
