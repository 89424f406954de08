package triplelift

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
)

const (
	currency    = "USD"
	standardTTL = 300
	instreamTTL = 3600
	nativeTTL   = 33

	sourceHDX = "hdx"
	sourceTLX = "tlx"
)

// emptyAsset is the value of a native asset the exchange left out.
var emptyAsset = json.RawMessage(`""`)

// exchangeResponse keeps each bid raw so one malformed bid never discards its siblings.
type exchangeResponse struct {
	Bids []json.RawMessage `json:"bids"`
}

// ExchangeBid is one bid in the exchange's flat bid list.
type ExchangeBid struct {
	ImpID          json.Number     `json:"imp_id"`
	CPM            float64         `json:"cpm"`
	Width          int64           `json:"width"`
	Height         int64           `json:"height"`
	Ad             string          `json:"ad"`
	NativeAd       *ExchangeNative `json:"native_ad"`
	DealID         string          `json:"deal_id"`
	CreativeID     json.RawMessage `json:"crid"`
	TLSource       string          `json:"tl_source"`
	AdvertiserName string          `json:"advertiser_name"`
	ADomain        []string        `json:"adomain"`
}

type ExchangeNative struct {
	Image         json.RawMessage `json:"image"`
	Title         string          `json:"title"`
	ClickURL      string          `json:"clickUrl"`
	SponsoredBy   string          `json:"sponsoredBy"`
	ImpTrackers   []string        `json:"impTrackers"`
	ClickTrackers []string        `json:"clickTrackers"`
	ViewTrackers  []string        `json:"viewTrackers"`
	Body          string          `json:"body"`
	Icon          json.RawMessage `json:"icon"`
	CTA           string          `json:"cta"`
	AdChoices     string          `json:"adChoices"`
}

func (a *adapter) MakeBids(cycle *adapters.Cycle, externalRequest *adapters.RequestData, response *adapters.ResponseData) ([]*adapters.BidResult, []error) {
	if response.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if response.StatusCode == http.StatusBadRequest {
		return nil, []error{&errortypes.BadInput{
			Message: fmt.Sprintf("Unexpected status code: %d. Run with debug for more info", response.StatusCode),
		}}
	}

	if response.StatusCode != http.StatusOK {
		return nil, []error{&errortypes.BadServerResponse{
			Message: fmt.Sprintf("Unexpected status code: %d. Run with debug for more info", response.StatusCode),
		}}
	}

	var bidResp exchangeResponse
	if err := json.Unmarshal(response.Body, &bidResp); err != nil {
		return nil, []error{&errortypes.BadServerResponse{
			Message: fmt.Sprintf("Bad server response: %v", err),
		}}
	}

	// The same pure classification used to build the request recovers the slot order.
	buckets := ClassifyAdUnits(cycle.Slots)

	var errs []error
	bids := make([]*adapters.BidResult, 0, len(bidResp.Bids))
	for i, rawBid := range bidResp.Bids {
		var bid ExchangeBid
		if err := json.Unmarshal(rawBid, &bid); err != nil {
			a.metrics.RecordDroppedBid(metrics.DropReasonMalformedBid)
			errs = append(errs, &errortypes.Warning{
				Message:     fmt.Sprintf("bid %d is malformed and was dropped: %v", i, err),
				WarningCode: errortypes.MalformedBidWarningCode,
			})
			continue
		}
		var result *adapters.BidResult
		var bidErrs []error
		if bid.NativeAd != nil {
			result, bidErrs = a.nativeBid(&bid, buckets.Native)
		} else {
			result, bidErrs = a.standardBid(&bid, buckets.Standard)
		}
		errs = append(errs, bidErrs...)
		if result != nil {
			bids = append(bids, result)
		}
	}
	return bids, a.warn(errs)
}

func (a *adapter) nativeBid(bid *ExchangeBid, slots []adapters.AdSlot) (*adapters.BidResult, []error) {
	if bid.CPM == 0 {
		a.metrics.RecordDroppedBid(metrics.DropReasonZeroCPM)
		return nil, nil
	}
	slot, err := a.correlate(bid, slots, openrtb_ext.PayloadKindNative)
	if err != nil {
		return nil, []error{err}
	}

	image, sizeErrs := normalizeSizesAt(orEmpty(bid.NativeAd.Image), "sizes")

	clickTrackers := bid.NativeAd.ClickTrackers
	if len(clickTrackers) == 0 {
		clickTrackers = bid.NativeAd.ViewTrackers
	}

	return &adapters.BidResult{
		RequestID:  slot.BidID,
		CPM:        bid.CPM,
		Width:      orOne(bid.Width),
		Height:     orOne(bid.Height),
		NetRevenue: true,
		Currency:   currency,
		TTL:        nativeTTL,
		MediaType:  openrtb_ext.BidTypeNative,
		Native: &adapters.NativeAssets{
			Image:              image,
			Title:              bid.NativeAd.Title,
			ClickURL:           bid.NativeAd.ClickURL,
			SponsoredBy:        bid.NativeAd.SponsoredBy,
			ImpressionTrackers: bid.NativeAd.ImpTrackers,
			ClickTrackers:      clickTrackers,
			Body:               bid.NativeAd.Body,
			Icon:               orEmpty(bid.NativeAd.Icon),
			CTA:                bid.NativeAd.CTA,
			AdChoices:          bid.NativeAd.AdChoices,
		},
		DealID:     bid.DealID,
		CreativeID: creativeID(bid.CreativeID),
		Meta: adapters.BidMeta{
			MediaType: openrtb_ext.BidTypeNative,
		},
	}, sizeErrs
}

func (a *adapter) standardBid(bid *ExchangeBid, slots []adapters.AdSlot) (*adapters.BidResult, []error) {
	if bid.CPM == 0 {
		a.metrics.RecordDroppedBid(metrics.DropReasonZeroCPM)
		return nil, nil
	}
	if bid.Ad == "" {
		a.metrics.RecordDroppedBid(metrics.DropReasonMissingMarkup)
		return nil, nil
	}
	slot, err := a.correlate(bid, slots, openrtb_ext.PayloadKindStandard)
	if err != nil {
		return nil, []error{err}
	}

	result := &adapters.BidResult{
		RequestID:  slot.BidID,
		CPM:        bid.CPM,
		Width:      orOne(bid.Width),
		Height:     orOne(bid.Height),
		NetRevenue: true,
		Currency:   currency,
		TTL:        standardTTL,
		MediaType:  openrtb_ext.BidTypeBanner,
		Ad:         bid.Ad,
		DealID:     bid.DealID,
		CreativeID: creativeID(bid.CreativeID),
		TLSource:   bid.TLSource,
	}

	if isInstream(slot) {
		result.VastXML = bid.Ad
		result.MediaType = openrtb_ext.BidTypeVideo
		result.TTL = instreamTTL
	}

	result.Meta.AdvertiserName = bid.AdvertiserName
	if len(bid.ADomain) > 0 {
		result.Meta.AdvertiserDomains = bid.ADomain
	}

	switch bid.TLSource {
	case sourceHDX:
		result.Meta.MediaType = openrtb_ext.BidTypeBanner
	case sourceTLX:
		result.Meta.MediaType = openrtb_ext.BidTypeNative
	}

	return result, nil
}

// correlate resolves the bid's imp id to the slot at that index of the bucket. An id that is
// not an index of the bucket drops the bid.
func (a *adapter) correlate(bid *ExchangeBid, slots []adapters.AdSlot, kind openrtb_ext.PayloadKind) (*adapters.AdSlot, error) {
	index, err := strconv.Atoi(bid.ImpID.String())
	if err != nil || index < 0 || index >= len(slots) {
		a.metrics.RecordDroppedBid(metrics.DropReasonUnknownImp)
		return nil, &errortypes.Warning{
			Message:     fmt.Sprintf("bid imp_id %q does not match any %s imp and was dropped", bid.ImpID.String(), kind),
			WarningCode: errortypes.UnknownImpIDWarningCode,
		}
	}
	return &slots[index], nil
}

func orOne(value int64) int64 {
	if value == 0 {
		return 1
	}
	return value
}

func orEmpty(asset json.RawMessage) json.RawMessage {
	if falsyJSON(asset) {
		return emptyAsset
	}
	return asset
}

// creativeID accepts the creative id as either a string or a number.
func creativeID(raw json.RawMessage) string {
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.String:
		str, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return str
	case jsonparser.Number:
		return string(value)
	}
	return ""
}
