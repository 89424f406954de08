package adapters

import (
	"encoding/json"

	"github.com/prebid/tlx-bridge/openrtb_ext"
)

// BidResult is a normalized bid for one originating ad slot. It only exists when the exchange
// bid had a non-zero CPM and, outside of native, markup.
type BidResult struct {
	RequestID  string              `json:"requestId"`
	CPM        float64             `json:"cpm"`
	Width      int64               `json:"width"`
	Height     int64               `json:"height"`
	NetRevenue bool                `json:"netRevenue"`
	Currency   string              `json:"currency"`
	TTL        int                 `json:"ttl"`
	MediaType  openrtb_ext.BidType `json:"mediaType"`
	Ad         string              `json:"ad,omitempty"`
	VastXML    string              `json:"vastXml,omitempty"`
	Native     *NativeAssets       `json:"native,omitempty"`
	DealID     string              `json:"dealId"`
	CreativeID string              `json:"creativeId"`
	TLSource   string              `json:"tl_source,omitempty"`
	Meta       BidMeta             `json:"meta"`
}

// BidMeta is advisory metadata. MediaType may differ from BidResult.MediaType.
type BidMeta struct {
	AdvertiserName    string              `json:"advertiserName,omitempty"`
	AdvertiserDomains []string            `json:"advertiserDomains,omitempty"`
	MediaType         openrtb_ext.BidType `json:"mediaType,omitempty"`
}

// NativeAssets is the fixed native asset record. Image and Icon are whatever the exchange
// sent, or "" when absent.
type NativeAssets struct {
	Image              json.RawMessage `json:"image"`
	Title              string          `json:"title,omitempty"`
	ClickURL           string          `json:"clickUrl,omitempty"`
	SponsoredBy        string          `json:"sponsoredBy,omitempty"`
	ImpressionTrackers []string        `json:"impressionTrackers,omitempty"`
	ClickTrackers      []string        `json:"clickTrackers,omitempty"`
	Body               string          `json:"body"`
	Icon               json.RawMessage `json:"icon"`
	CTA                string          `json:"cta"`
	AdChoices          string          `json:"adChoices"`
}
