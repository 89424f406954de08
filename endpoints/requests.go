package endpoints

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
)

// RequestDescriptor is one outbound exchange call the caller is expected to make.
type RequestDescriptor struct {
	Kind   openrtb_ext.PayloadKind `json:"kind"`
	Method string                  `json:"method"`
	URL    string                  `json:"url"`
	Data   json.RawMessage         `json:"data"`
}

type requestsResponse struct {
	CycleID  string              `json:"cycleId,omitempty"`
	Requests []RequestDescriptor `json:"requests"`
	Messages
}

type requestsEndpoint struct {
	bidder    adapters.Bidder
	validator openrtb_ext.BidderParamValidator
	cycles    *CycleStore
	metrics   metrics.MetricsEngine
}

// NewRequestsEndpoint builds the exchange calls for a batch of ad slots without sending them.
// The cycle is kept so that POST /tlx/responses/:cycle and POST /tlx/usersync can follow.
func NewRequestsEndpoint(bidder adapters.Bidder, validator openrtb_ext.BidderParamValidator, cycles *CycleStore, me metrics.MetricsEngine) httprouter.Handle {
	endpoint := &requestsEndpoint{
		bidder:    bidder,
		validator: validator,
		cycles:    cycles,
		metrics:   me,
	}
	return endpoint.Handle
}

func (e *requestsEndpoint) Handle(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	start := time.Now()
	labels := metrics.Labels{RType: metrics.ReqTypeBuild, RequestStatus: metrics.RequestStatusOK}
	defer func() {
		e.metrics.RecordRequest(labels)
		e.metrics.RecordRequestTime(labels, time.Since(start))
	}()

	var request adapters.BidRequest
	if err := readJSON(w, r, &request); err != nil {
		labels.RequestStatus = metrics.RequestStatusBadInput
		writeBadRequest(w, err)
		return
	}

	errs := prepareSlots(&request, e.validator)
	cycle, reqData, buildErrs := e.bidder.MakeRequests(r.Context(), &request)
	errs = append(errs, buildErrs...)
	labels.RequestStatus = requestStatus(cycle)

	response := requestsResponse{
		Requests: make([]RequestDescriptor, 0, len(reqData)),
		Messages: newMessages(errs),
	}
	if cycle != nil {
		e.cycles.Save(cycle)
		response.CycleID = cycle.ID
	}
	for _, data := range reqData {
		response.Requests = append(response.Requests, RequestDescriptor{
			Kind:   data.Kind,
			Method: data.Method,
			URL:    data.Uri,
			Data:   data.Body,
		})
	}
	writeJSON(w, http.StatusOK, response)
}
