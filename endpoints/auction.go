package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/logger"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/usersync"
)

type auctionRequest struct {
	adapters.BidRequest
	SyncOptions usersync.Options `json:"syncOptions"`
	Debug       bool             `json:"debug"`
}

type auctionResponse struct {
	CycleID   string                `json:"cycleId,omitempty"`
	Bids      []*adapters.BidResult `json:"bids"`
	UserSyncs []usersync.Sync       `json:"userSyncs"`
	HttpCalls []*adapters.HttpCall  `json:"httpCalls,omitempty"`
	Messages
}

type auction struct {
	bidder         *adapters.HTTPBidder
	validator      openrtb_ext.BidderParamValidator
	cycles         *CycleStore
	defaultTimeout time.Duration
	metrics        metrics.MetricsEngine
}

// NewAuctionEndpoint runs a whole cycle server side: build, send, map and sync.
func NewAuctionEndpoint(cfg *config.Configuration, bidder *adapters.HTTPBidder, validator openrtb_ext.BidderParamValidator, cycles *CycleStore, me metrics.MetricsEngine) httprouter.Handle {
	a := &auction{
		bidder:         bidder,
		validator:      validator,
		cycles:         cycles,
		defaultTimeout: time.Duration(cfg.Adapter.TimeoutMS) * time.Millisecond,
		metrics:        me,
	}
	return a.auction
}

func (a *auction) auction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	labels := metrics.Labels{RType: metrics.ReqTypeAuction, RequestStatus: metrics.RequestStatusOK}
	defer func() {
		a.metrics.RecordRequest(labels)
		a.metrics.RecordRequestTime(labels, time.Since(start))
	}()

	var request auctionRequest
	if err := readJSON(w, r, &request); err != nil {
		labels.RequestStatus = metrics.RequestStatusBadInput
		writeBadRequest(w, err)
		return
	}

	errs := prepareSlots(&request.BidRequest, a.validator)

	ctx, cancel := context.WithTimeout(r.Context(), a.timeout(&request.Auction))
	defer cancel()

	result, bidErrs := a.bidder.Bid(ctx, &request.BidRequest, request.SyncOptions, request.Debug)
	errs = append(errs, bidErrs...)

	response := auctionResponse{
		Bids:      []*adapters.BidResult{},
		UserSyncs: []usersync.Sync{},
		Messages:  newMessages(errs),
	}
	if result == nil {
		labels.RequestStatus = metrics.RequestStatusBadInput
		writeJSON(w, http.StatusOK, response)
		return
	}

	a.cycles.Save(result.Cycle)
	response.CycleID = result.Cycle.ID
	response.Bids = append(response.Bids, result.Bids...)
	if result.UserSyncs != nil {
		response.UserSyncs = result.UserSyncs
	}
	response.HttpCalls = result.HttpCalls

	if errortypes.ContainsFatalError(bidErrs) {
		labels.RequestStatus = metrics.RequestStatusErr
		logger.Infof("auction cycle %s finished with errors: %v", result.Cycle.ID, errortypes.FatalOnly(bidErrs))
	}
	writeJSON(w, http.StatusOK, response)
}

// timeout honours the caller's tmax and falls back to the configured exchange timeout.
func (a *auction) timeout(auction *adapters.AuctionContext) time.Duration {
	if auction.Timeout > 0 {
		return time.Duration(auction.Timeout) * time.Millisecond
	}
	return a.defaultTimeout
}
