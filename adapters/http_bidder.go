package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/usersync"
	"golang.org/x/net/context/ctxhttp"
	"golang.org/x/sync/errgroup"
)

// AuctionResponse is the outcome of one auction cycle.
type AuctionResponse struct {
	Cycle     *Cycle
	Bids      []*BidResult
	UserSyncs []usersync.Sync
	// HttpCalls is only populated in debug mode.
	HttpCalls []*HttpCall
}

// HttpCall describes one exchange round trip for debugging.
type HttpCall struct {
	Kind         openrtb_ext.PayloadKind `json:"kind"`
	Uri          string                  `json:"uri"`
	RequestBody  string                  `json:"requestbody"`
	ResponseBody string                  `json:"responsebody,omitempty"`
	Status       int                     `json:"status,omitempty"`
}

// HTTPBidder sends the requests a Bidder builds and feeds the responses back into it.
type HTTPBidder struct {
	Bidder  Bidder
	Client  *http.Client
	Metrics metrics.MetricsEngine
}

// NewHTTPBidder bridges a Bidder to the network.
func NewHTTPBidder(bidder Bidder, client *http.Client, me metrics.MetricsEngine) *HTTPBidder {
	return &HTTPBidder{
		Bidder:  bidder,
		Client:  client,
		Metrics: me,
	}
}

// Bid runs a complete auction cycle: build, send, map and sync.
func (bidder *HTTPBidder) Bid(ctx context.Context, request *BidRequest, syncOptions usersync.Options, debug bool) (*AuctionResponse, []error) {
	cycle, reqData, errs := bidder.Bidder.MakeRequests(ctx, request)
	if cycle == nil {
		return nil, errs
	}

	response := &AuctionResponse{
		Cycle: cycle,
		Bids:  make([]*BidResult, 0, len(cycle.Slots)),
	}

	// The payloads are independent, so one failing never cancels the other.
	httpInfos := make([]*httpCallInfo, len(reqData))
	var g errgroup.Group
	for i, data := range reqData {
		i, data := i, data
		g.Go(func() error {
			httpInfos[i] = bidder.doRequest(ctx, data)
			return nil
		})
	}
	g.Wait()

	for _, httpInfo := range httpInfos {
		if debug {
			response.HttpCalls = append(response.HttpCalls, makeExt(httpInfo))
		}

		if httpInfo.err != nil {
			errs = append(errs, httpInfo.err)
			continue
		}

		bids, moreErrs := bidder.Bidder.MakeBids(cycle, httpInfo.request, httpInfo.response)
		errs = append(errs, moreErrs...)
		for _, bid := range bids {
			bidder.Metrics.RecordAdapterBid(bid.MediaType, bid.CPM)
			response.Bids = append(response.Bids, bid)
		}
	}

	response.UserSyncs = bidder.Bidder.UserSyncs(cycle, syncOptions, request.Auction.USPConsent)

	return response, errs
}

// makeExt transforms information about the HTTP call into the debug representation.
func makeExt(httpInfo *httpCallInfo) *HttpCall {
	call := &HttpCall{
		Kind:        httpInfo.request.Kind,
		Uri:         httpInfo.request.Uri,
		RequestBody: string(httpInfo.request.Body),
	}
	if httpInfo.err == nil {
		call.ResponseBody = string(httpInfo.response.Body)
		call.Status = httpInfo.response.StatusCode
	}
	return call
}

// doRequest makes a request, handles the response, and returns the data needed by the
// Bidder interface.
func (bidder *HTTPBidder) doRequest(ctx context.Context, req *RequestData) *httpCallInfo {
	labels := metrics.AdapterLabels{PayloadKind: req.Kind}

	httpReq, err := http.NewRequest(req.Method, req.Uri, bytes.NewBuffer(req.Body))
	if err != nil {
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}
	httpReq.Header = req.Headers

	startTime := time.Now()
	httpResp, err := ctxhttp.Do(ctx, bidder.Client, httpReq)
	bidder.Metrics.RecordAdapterTime(labels, time.Since(startTime))
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusErr
		bidder.Metrics.RecordAdapterRequest(labels)
		if errors.Is(err, context.DeadlineExceeded) {
			err = &errortypes.Timeout{Message: err.Error()}
		}
		return &httpCallInfo{
			request: req,
			err:     err,
		}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		labels.RequestStatus = metrics.RequestStatusErr
		bidder.Metrics.RecordAdapterRequest(labels)
		return &httpCallInfo{
			request: req,
			err:     fmt.Errorf("failed to read %s response body: %v", req.Kind, err),
		}
	}

	labels.RequestStatus = statusFor(httpResp.StatusCode)
	bidder.Metrics.RecordAdapterRequest(labels)

	return &httpCallInfo{
		request: req,
		response: &ResponseData{
			StatusCode: httpResp.StatusCode,
			Body:       respBody,
			Headers:    httpResp.Header,
		},
	}
}

func statusFor(statusCode int) metrics.RequestStatus {
	switch statusCode {
	case http.StatusOK:
		return metrics.RequestStatusOK
	case http.StatusNoContent:
		return metrics.RequestStatusNoContent
	case http.StatusBadRequest:
		return metrics.RequestStatusBadRequest
	default:
		return metrics.RequestStatusErr
	}
}

type httpCallInfo struct {
	request  *RequestData
	response *ResponseData
	err      error
}
