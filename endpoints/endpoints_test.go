package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/floors"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/usersync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubBidder builds one standard request per call and answers MakeBids with one banner bid per
// slot when the exchange replied 200.
type stubBidder struct {
	uri string

	mu        sync.Mutex
	requests  []*adapters.BidRequest
	responses []*adapters.ResponseData
	kinds     []openrtb_ext.PayloadKind
	syncCycle *adapters.Cycle
}

func (b *stubBidder) MakeRequests(ctx context.Context, request *adapters.BidRequest) (*adapters.Cycle, []*adapters.RequestData, []error) {
	b.mu.Lock()
	b.requests = append(b.requests, request)
	b.mu.Unlock()

	if len(request.Slots) == 0 {
		return nil, nil, []error{&errortypes.FailedToRequestBids{Message: "no valid ad slots"}}
	}
	uri := b.uri
	if uri == "" {
		uri = "https://tlx.example/header/auction?lib=prebid"
	}
	return &adapters.Cycle{ID: "cycle-1", Slots: request.Slots},
		[]*adapters.RequestData{{
			Method: http.MethodPost,
			Uri:    uri,
			Body:   []byte(`{"imp":[{"imp_id":0}]}`),
			Kind:   openrtb_ext.PayloadKindStandard,
		}},
		[]error{&errortypes.Warning{Message: "identity dropped", WarningCode: errortypes.InvalidUserEIDsWarningCode}}
}

func (b *stubBidder) MakeBids(cycle *adapters.Cycle, externalRequest *adapters.RequestData, response *adapters.ResponseData) ([]*adapters.BidResult, []error) {
	b.mu.Lock()
	b.responses = append(b.responses, response)
	b.kinds = append(b.kinds, externalRequest.Kind)
	b.mu.Unlock()

	if response.StatusCode != http.StatusOK {
		return nil, []error{&errortypes.BadServerResponse{Message: "unexpected status"}}
	}
	bids := make([]*adapters.BidResult, 0, len(cycle.Slots))
	for _, slot := range cycle.Slots {
		bids = append(bids, &adapters.BidResult{
			RequestID: slot.BidID,
			CPM:       1.25,
			MediaType: openrtb_ext.BidTypeBanner,
			Ad:        string(response.Body),
		})
	}
	return bids, nil
}

func (b *stubBidder) UserSyncs(cycle *adapters.Cycle, options usersync.Options, uspConsent string) []usersync.Sync {
	b.mu.Lock()
	b.syncCycle = cycle
	b.mu.Unlock()

	if !options.IframeEnabled {
		return nil
	}
	url := "https://sync.example/sync?us_privacy=" + uspConsent
	if cycle != nil {
		url += "&cycle=" + cycle.ID
	}
	return []usersync.Sync{{Type: usersync.SyncTypeIFrame, URL: url}}
}

func newRecordingMetrics(rType metrics.RequestType, status metrics.RequestStatus) *metrics.MetricsEngineMock {
	me := &metrics.MetricsEngineMock{}
	labels := metrics.Labels{RType: rType, RequestStatus: status}
	me.On("RecordRequest", labels).Return()
	me.On("RecordRequestTime", labels, mock.Anything).Return()
	me.On("RecordAdapterRequest", mock.Anything).Return()
	me.On("RecordAdapterTime", mock.Anything, mock.Anything).Return()
	me.On("RecordAdapterBid", mock.Anything, mock.Anything).Return()
	return me
}

func testConfig() *config.Configuration {
	return &config.Configuration{Adapter: config.Adapter{TimeoutMS: 1000}}
}

func newTestValidator(t *testing.T) openrtb_ext.BidderParamValidator {
	t.Helper()
	validator, err := openrtb_ext.NewBidderParamsValidator("../static/bidder-params")
	require.NoError(t, err)
	return validator
}

func serve(handle httprouter.Handle, method, path, pattern, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	router.Handle(method, pattern, handle)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(method, path, strings.NewReader(body)))
	return recorder
}

const twoSlotRequest = `{
	"bidRequests": [
		{"bidId":"bid-a","mediaTypes":{"banner":{"sizes":[[300,250]]}},"params":{"inventoryCode":"inv_a"}},
		{"bidId":"bid-b","mediaTypes":{"banner":{"sizes":[[728,90]]}},"params":{"floor":1}},
		{"bidId":"bid-c","mediaTypes":{"banner":{"sizes":[[728,90]]}},"params":{"inventoryCode":"inv_c","floor":"high"}}
	],
	"bidderRequest": {"referrer":"https://pub.example","timeout":500}
}`

func TestRequestsEndpoint(t *testing.T) {
	testCases := []struct {
		description    string
		body           string
		expectedCode   int
		expectedStatus metrics.RequestStatus
		expectedBody   string
		expectedCycles int
	}{
		{
			description:    "builds-and-stores-cycle",
			body:           twoSlotRequest,
			expectedCode:   http.StatusOK,
			expectedStatus: metrics.RequestStatusOK,
			expectedBody: `{
				"cycleId":"cycle-1",
				"requests":[{"kind":"standard","method":"POST","url":"https://tlx.example/header/auction?lib=prebid","data":{"imp":[{"imp_id":0}]}}],
				"warnings":[{"code":10002,"message":"identity dropped"}]
			}`,
			expectedCycles: 1,
		},
		{
			description:    "no-usable-slots",
			body:           `{"bidRequests":[],"bidderRequest":{}}`,
			expectedCode:   http.StatusOK,
			expectedStatus: metrics.RequestStatusBadInput,
			expectedBody:   `{"requests":[],"errors":[{"code":4,"message":"no valid ad slots"}]}`,
		},
		{
			description:    "malformed-body",
			body:           `{"bidRequests":`,
			expectedCode:   http.StatusBadRequest,
			expectedStatus: metrics.RequestStatusBadInput,
		},
	}

	for _, test := range testCases {
		cycles := NewCycleStore(time.Minute)
		me := newRecordingMetrics(metrics.ReqTypeBuild, test.expectedStatus)
		handle := NewRequestsEndpoint(&stubBidder{}, nil, cycles, me)

		recorder := serve(handle, http.MethodPost, "/tlx/requests", "/tlx/requests", test.body)
		assert.Equal(t, test.expectedCode, recorder.Code, test.description)
		if test.expectedBody != "" {
			assert.JSONEq(t, test.expectedBody, recorder.Body.String(), test.description)
		}
		assert.Equal(t, test.expectedCycles, cycles.Len(), test.description)
		me.AssertExpectations(t)
	}
}

func TestRequestsEndpointDropsInvalidParams(t *testing.T) {
	bidder := &stubBidder{}
	me := newRecordingMetrics(metrics.ReqTypeBuild, metrics.RequestStatusOK)
	handle := NewRequestsEndpoint(bidder, newTestValidator(t), NewCycleStore(time.Minute), me)

	recorder := serve(handle, http.MethodPost, "/tlx/requests", "/tlx/requests", twoSlotRequest)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response requestsResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response.Errors, 2)
	for _, err := range response.Errors {
		assert.Equal(t, errortypes.BadInputErrorCode, err.Code)
	}
	assert.Contains(t, response.Errors[0].Message, "bid-b")
	assert.Contains(t, response.Errors[1].Message, "bid-c")

	require.Len(t, bidder.requests, 1)
	require.Len(t, bidder.requests[0].Slots, 1)
	assert.Equal(t, "bid-a", bidder.requests[0].Slots[0].BidID)
	me.AssertExpectations(t)
}

func TestResponsesEndpoint(t *testing.T) {
	testCases := []struct {
		description    string
		path           string
		body           string
		expectedCode   int
		expectedBody   string
		expectedKind   openrtb_ext.PayloadKind
		expectedStatus int
	}{
		{
			description:  "unknown-cycle",
			path:         "/tlx/responses/cycle-9",
			body:         `{}`,
			expectedCode: http.StatusNotFound,
			expectedBody: `{"errors":[{"code":404,"message":"unknown or expired cycle cycle-9"}]}`,
		},
		{
			description:    "defaults-to-standard-ok",
			path:           "/tlx/responses/cycle-1",
			body:           `{"body":"<div/>"}`,
			expectedCode:   http.StatusOK,
			expectedBody:   `{"bids":[{"requestId":"bid-a","cpm":1.25,"width":0,"height":0,"netRevenue":false,"currency":"","ttl":0,"mediaType":"banner","ad":"\"<div/>\"","dealId":"","creativeId":"","meta":{}}]}`,
			expectedKind:   openrtb_ext.PayloadKindStandard,
			expectedStatus: http.StatusOK,
		},
		{
			description:    "exchange-error-status",
			path:           "/tlx/responses/cycle-1",
			body:           `{"kind":"native","status":500}`,
			expectedCode:   http.StatusOK,
			expectedBody:   `{"bids":[],"errors":[{"code":3,"message":"unexpected status"}]}`,
			expectedKind:   openrtb_ext.PayloadKindNative,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			description:  "malformed-body",
			path:         "/tlx/responses/cycle-1",
			body:         `{"kind":`,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, test := range testCases {
		cycles := NewCycleStore(time.Minute)
		cycles.Save(&adapters.Cycle{ID: "cycle-1", Slots: []adapters.AdSlot{{BidID: "bid-a"}}})
		bidder := &stubBidder{}
		me := newRecordingMetrics(metrics.ReqTypeBuild, metrics.RequestStatusOK)

		recorder := serve(NewResponsesEndpoint(bidder, cycles, me), http.MethodPost, test.path, "/tlx/responses/:cycle", test.body)
		assert.Equal(t, test.expectedCode, recorder.Code, test.description)
		if test.expectedBody != "" {
			assert.JSONEq(t, test.expectedBody, recorder.Body.String(), test.description)
		}
		if test.expectedKind != "" {
			require.Len(t, bidder.responses, 1, test.description)
			assert.Equal(t, test.expectedKind, bidder.kinds[0], test.description)
			assert.Equal(t, test.expectedStatus, bidder.responses[0].StatusCode, test.description)
		}
	}
}

func TestUserSyncEndpoint(t *testing.T) {
	testCases := []struct {
		description   string
		body          string
		expectedCode  int
		expectedBody  string
		expectedCycle bool
	}{
		{
			description:   "with-cycle",
			body:          `{"cycleId":"cycle-1","syncOptions":{"iframeEnabled":true},"uspConsent":"1YNN"}`,
			expectedCode:  http.StatusOK,
			expectedBody:  `{"userSyncs":[{"type":"iframe","url":"https://sync.example/sync?us_privacy=1YNN&cycle=cycle-1"}]}`,
			expectedCycle: true,
		},
		{
			description:  "without-cycle",
			body:         `{"syncOptions":{"iframeEnabled":true}}`,
			expectedCode: http.StatusOK,
			expectedBody: `{"userSyncs":[{"type":"iframe","url":"https://sync.example/sync?us_privacy="}]}`,
		},
		{
			description:  "sync-disabled",
			body:         `{"syncOptions":{}}`,
			expectedCode: http.StatusOK,
			expectedBody: `{"userSyncs":[]}`,
		},
		{
			description:  "unknown-cycle",
			body:         `{"cycleId":"cycle-9","syncOptions":{"iframeEnabled":true}}`,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, test := range testCases {
		cycles := NewCycleStore(time.Minute)
		cycles.Save(&adapters.Cycle{ID: "cycle-1"})
		bidder := &stubBidder{}

		recorder := serve(NewUserSyncEndpoint(bidder, cycles), http.MethodPost, "/tlx/usersync", "/tlx/usersync", test.body)
		assert.Equal(t, test.expectedCode, recorder.Code, test.description)
		if test.expectedBody != "" {
			assert.JSONEq(t, test.expectedBody, recorder.Body.String(), test.description)
		}
		assert.Equal(t, test.expectedCycle, bidder.syncCycle != nil, test.description)
	}
}

func TestAuctionEndpoint(t *testing.T) {
	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div/>`))
	}))
	defer exchange.Close()

	bidder := &stubBidder{uri: exchange.URL}
	me := newRecordingMetrics(metrics.ReqTypeAuction, metrics.RequestStatusOK)
	cycles := NewCycleStore(time.Minute)
	handle := NewAuctionEndpoint(testConfig(), adapters.NewHTTPBidder(bidder, exchange.Client(), me), nil, cycles, me)

	body := `{
		"bidRequests":[{"bidId":"bid-a","mediaTypes":{"banner":{"sizes":[[300,250]]}},"params":{"inventoryCode":"inv_a"}}],
		"bidderRequest":{"timeout":500},
		"syncOptions":{"iframeEnabled":true}
	}`
	recorder := serve(handle, http.MethodPost, "/tlx/auction", "/tlx/auction", body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		CycleID   string                `json:"cycleId"`
		Bids      []*adapters.BidResult `json:"bids"`
		UserSyncs []usersync.Sync       `json:"userSyncs"`
		Warnings  []ErrorResponse       `json:"warnings"`
		HttpCalls []*adapters.HttpCall  `json:"httpCalls"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "cycle-1", response.CycleID)
	require.Len(t, response.Bids, 1)
	assert.Equal(t, "bid-a", response.Bids[0].RequestID)
	assert.Equal(t, "<div/>", response.Bids[0].Ad)
	assert.Equal(t, []usersync.Sync{{Type: usersync.SyncTypeIFrame, URL: "https://sync.example/sync?us_privacy=&cycle=cycle-1"}}, response.UserSyncs)
	assert.Len(t, response.Warnings, 1)
	assert.Empty(t, response.HttpCalls)

	_, stored := cycles.Load("cycle-1")
	assert.True(t, stored)
	me.AssertExpectations(t)
}

func TestAuctionEndpointWithoutSlots(t *testing.T) {
	bidder := &stubBidder{}
	me := newRecordingMetrics(metrics.ReqTypeAuction, metrics.RequestStatusBadInput)
	cycles := NewCycleStore(time.Minute)
	handle := NewAuctionEndpoint(testConfig(), adapters.NewHTTPBidder(bidder, http.DefaultClient, me), nil, cycles, me)

	recorder := serve(handle, http.MethodPost, "/tlx/auction", "/tlx/auction", `{"bidRequests":[]}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"bids":[],"userSyncs":[],"errors":[{"code":4,"message":"no valid ad slots"}]}`, recorder.Body.String())
	assert.Zero(t, cycles.Len())
	me.AssertExpectations(t)
}

func TestAuctionTimeout(t *testing.T) {
	a := &auction{defaultTimeout: 750 * time.Millisecond}

	assert.Equal(t, 200*time.Millisecond, a.timeout(&adapters.AuctionContext{Timeout: 200}))
	assert.Equal(t, 750*time.Millisecond, a.timeout(&adapters.AuctionContext{}))
}

func TestPrepareSlots(t *testing.T) {
	request := &adapters.BidRequest{Slots: []adapters.AdSlot{
		{BidID: "bid-a", Params: json.RawMessage(`{"inventoryCode":"inv_a"}`), FloorRules: json.RawMessage(`{"values":{"banner|*":2.5,"bad":1}}`)},
		{BidID: "bid-b", Params: json.RawMessage(`{"inventoryCode":"inv_b"}`), FloorRules: json.RawMessage(`[1,2]`)},
		{BidID: "bid-c", Params: json.RawMessage(`{"inventoryCode":7}`)},
	}}

	errs := prepareSlots(request, newTestValidator(t))
	require.Len(t, request.Slots, 2)

	require.NotNil(t, request.Slots[0].Floors)
	price, ok := request.Slots[0].Floors.GetFloor(floors.NewQuery(openrtb_ext.BidTypeBanner))
	require.True(t, ok)
	value, _ := price.Value()
	assert.Equal(t, 2.5, value)
	assert.Nil(t, request.Slots[1].Floors)

	require.Len(t, errs, 3)
	assert.Equal(t, errortypes.InvalidFloorRulesWarningCode, errortypes.ReadCode(errs[0]))
	assert.Equal(t, errortypes.InvalidFloorRulesWarningCode, errortypes.ReadCode(errs[1]))
	assert.Equal(t, errortypes.BadInputErrorCode, errortypes.ReadCode(errs[2]))
}

func TestStatusEndpoint(t *testing.T) {
	recorder := serve(NewStatusEndpoint(""), http.MethodGet, "/status", "/status", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = serve(NewStatusEndpoint("ready"), http.MethodGet, "/status", "/status", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ready", recorder.Body.String())
}

func TestVersionEndpoint(t *testing.T) {
	testCases := []struct {
		description string
		version     string
		revision    string
		expected    string
	}{
		{
			description: "both-set",
			version:     "1.2.0",
			revision:    "abc123",
			expected:    `{"revision":"abc123","version":"1.2.0"}`,
		},
		{
			description: "not-set",
			expected:    `{"revision":"not-set","version":"not-set"}`,
		},
	}

	for _, test := range testCases {
		recorder := httptest.NewRecorder()
		NewVersionEndpoint(test.version, test.revision)(recorder, httptest.NewRequest(http.MethodGet, "/version", nil))
		assert.Equal(t, http.StatusOK, recorder.Code, test.description)
		assert.JSONEq(t, test.expected, recorder.Body.String(), test.description)
	}
}
