package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
)

// exchangeReply is a response the caller received for one of the descriptors of a cycle.
type exchangeReply struct {
	Kind   openrtb_ext.PayloadKind `json:"kind"`
	Status int                     `json:"status"`
	Body   json.RawMessage         `json:"body"`
}

type bidsResponse struct {
	Bids []*adapters.BidResult `json:"bids"`
	Messages
}

type responsesEndpoint struct {
	bidder  adapters.Bidder
	cycles  *CycleStore
	metrics metrics.MetricsEngine
}

// NewResponsesEndpoint maps an exchange response back onto the slots of a stored cycle.
func NewResponsesEndpoint(bidder adapters.Bidder, cycles *CycleStore, me metrics.MetricsEngine) httprouter.Handle {
	endpoint := &responsesEndpoint{
		bidder:  bidder,
		cycles:  cycles,
		metrics: me,
	}
	return endpoint.Handle
}

func (e *responsesEndpoint) Handle(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	cycleID := params.ByName("cycle")
	cycle, ok := e.cycles.Load(cycleID)
	if !ok {
		writeJSON(w, http.StatusNotFound, Messages{Errors: []ErrorResponse{{
			Code:    http.StatusNotFound,
			Message: fmt.Sprintf("unknown or expired cycle %s", cycleID),
		}}})
		return
	}

	var reply exchangeReply
	if err := readJSON(w, r, &reply); err != nil {
		writeBadRequest(w, err)
		return
	}
	if reply.Kind == "" {
		reply.Kind = openrtb_ext.PayloadKindStandard
	}
	if reply.Status == 0 {
		reply.Status = http.StatusOK
	}

	bids, errs := e.bidder.MakeBids(cycle, &adapters.RequestData{Kind: reply.Kind}, &adapters.ResponseData{
		StatusCode: reply.Status,
		Body:       reply.Body,
	})
	for _, bid := range bids {
		e.metrics.RecordAdapterBid(bid.MediaType, bid.CPM)
	}
	if bids == nil {
		bids = []*adapters.BidResult{}
	}
	writeJSON(w, http.StatusOK, bidsResponse{Bids: bids, Messages: newMessages(errs)})
}
