package adapters

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prebid/tlx-bridge/floors"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/privacy"
	"github.com/prebid/tlx-bridge/usersync"
)

// Bidder describes how to connect to the exchange.
//
// MakeRequests and MakeBids may both return non-nil values alongside errors. Errors describe
// situations which make the request or bids "less than ideal", like a dropped identity value
// or a bid with an unknown imp id. Use errortypes to tell warnings from fatal errors.
type Bidder interface {
	// MakeRequests builds the HTTP requests for one auction cycle. The returned Cycle must be
	// handed back to MakeBids and UserSyncs of the same cycle. ctx bounds any storage lookup.
	MakeRequests(ctx context.Context, request *BidRequest) (*Cycle, []*RequestData, []error)

	// MakeBids unpacks the server's response into bid results.
	//
	// The bids can be nil (for no bids), but should not contain nil elements.
	MakeBids(cycle *Cycle, externalRequest *RequestData, response *ResponseData) ([]*BidResult, []error)

	// UserSyncs returns the user sync the device should perform after the cycle, if any.
	UserSyncs(cycle *Cycle, options usersync.Options, uspConsent string) []usersync.Sync
}

// BidRequest is everything the calling auction engine hands over for one auction cycle.
type BidRequest struct {
	Slots   []AdSlot       `json:"bidRequests"`
	Auction AuctionContext `json:"bidderRequest"`
}

// AdSlot is one publisher ad slot's bid request. It is read-only to bidders.
type AdSlot struct {
	BidID        string                     `json:"bidId"`
	MediaTypes   MediaTypes                 `json:"mediaTypes"`
	Sizes        []json.RawMessage          `json:"sizes,omitempty"`
	NativeParams json.RawMessage            `json:"nativeParams,omitempty"`
	Params       json.RawMessage            `json:"params,omitempty"`
	Ortb2Imp     json.RawMessage            `json:"ortb2Imp,omitempty"`
	UserID       map[string]json.RawMessage `json:"userId,omitempty"`
	SChain       json.RawMessage            `json:"schain,omitempty"`
	// FloorRules is a floors.Rules table the HTTP layer turns into Floors.
	FloorRules json.RawMessage `json:"floors,omitempty"`
	// Floors resolves a dynamic floor. Nil means only the static params floor applies.
	Floors floors.Provider `json:"-"`
}

// MediaTypes holds the declared media types. A non-empty value means the type is declared.
type MediaTypes struct {
	Banner json.RawMessage `json:"banner,omitempty"`
	Video  json.RawMessage `json:"video,omitempty"`
	Native json.RawMessage `json:"native,omitempty"`
}

// AuctionContext is the batch-level context shared by every slot of a cycle.
type AuctionContext struct {
	Referrer    string          `json:"referrer,omitempty"`
	Timeout     int64           `json:"timeout,omitempty"`
	GDPRConsent *GDPRConsent    `json:"gdprConsent,omitempty"`
	USPConsent  string          `json:"uspConsent,omitempty"`
	COPPA       bool            `json:"coppa,omitempty"`
	SChain      json.RawMessage `json:"schain,omitempty"`
	Ortb2       Ortb2           `json:"ortb2"`
}

// GDPRConsent mirrors the consent management platform's view. Nil fields were not reported.
type GDPRConsent struct {
	GDPRApplies   *bool   `json:"gdprApplies,omitempty"`
	ConsentString *string `json:"consentString,omitempty"`
}

// Ortb2 is the publisher's global first-party data.
type Ortb2 struct {
	Site json.RawMessage `json:"site,omitempty"`
	User json.RawMessage `json:"user,omitempty"`
}

// Cycle carries the state of one auction cycle from request building to bid mapping and user
// syncs. It replaces any process-wide state, so concurrent cycles never see each other.
type Cycle struct {
	ID string `json:"id"`
	// Slots are the eligible slots in request order. Bids are correlated against them.
	Slots   []AdSlot         `json:"slots"`
	Privacy privacy.Policies `json:"-"`
}

// RequestData packages together the fields needed to make an http.Request.
type RequestData struct {
	Method  string
	Uri     string
	Body    []byte
	Headers http.Header
	Kind    openrtb_ext.PayloadKind
}

// ResponseData packages together information from the server's http.Response.
type ResponseData struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}
