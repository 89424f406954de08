package metrics

import (
	"time"

	"github.com/prebid/tlx-bridge/openrtb_ext"
)

// Labels defines the labels that can be attached to the inbound request metrics.
type Labels struct {
	RType         RequestType
	RequestStatus RequestStatus
}

// AdapterLabels defines the labels attached to one outbound exchange request.
type AdapterLabels struct {
	PayloadKind   openrtb_ext.PayloadKind
	RequestStatus RequestStatus
}

// RequestType : Request type enumeration
type RequestType string

const (
	ReqTypeBuild   RequestType = "build"
	ReqTypeAuction RequestType = "auction"
)

func RequestTypes() []RequestType {
	return []RequestType{
		ReqTypeBuild,
		ReqTypeAuction,
	}
}

// RequestStatus : The request return status
type RequestStatus string

const (
	RequestStatusOK         RequestStatus = "ok"
	RequestStatusBadInput   RequestStatus = "badinput"
	RequestStatusErr        RequestStatus = "err"
	RequestStatusNoContent  RequestStatus = "nocontent"
	RequestStatusBadRequest RequestStatus = "badrequest"
)

func RequestStatuses() []RequestStatus {
	return []RequestStatus{
		RequestStatusOK,
		RequestStatusBadInput,
		RequestStatusErr,
		RequestStatusNoContent,
		RequestStatusBadRequest,
	}
}

// DropReason explains why an exchange bid produced no bid result.
type DropReason string

const (
	DropReasonZeroCPM       DropReason = "zero_cpm"
	DropReasonMissingMarkup DropReason = "missing_markup"
	DropReasonUnknownImp    DropReason = "unknown_imp"
	DropReasonMalformedBid  DropReason = "malformed_bid"
)

func DropReasons() []DropReason {
	return []DropReason{
		DropReasonZeroCPM,
		DropReasonMissingMarkup,
		DropReasonUnknownImp,
		DropReasonMalformedBid,
	}
}

// SegmentLookupResult is the outcome of reading the segment blob from storage.
type SegmentLookupResult string

const (
	SegmentLookupHit     SegmentLookupResult = "hit"
	SegmentLookupMiss    SegmentLookupResult = "miss"
	SegmentLookupInvalid SegmentLookupResult = "invalid"
	SegmentLookupError   SegmentLookupResult = "error"
)

func SegmentLookupResults() []SegmentLookupResult {
	return []SegmentLookupResult{
		SegmentLookupHit,
		SegmentLookupMiss,
		SegmentLookupInvalid,
		SegmentLookupError,
	}
}

// MetricsEngine is a generic interface to record metrics into the desired backend
type MetricsEngine interface {
	RecordRequest(labels Labels)
	RecordRequestTime(labels Labels, length time.Duration)
	RecordAdapterRequest(labels AdapterLabels)
	RecordAdapterTime(labels AdapterLabels, length time.Duration)
	RecordAdapterBid(bidType openrtb_ext.BidType, cpm float64)
	RecordDroppedBid(reason DropReason)
	RecordIdentityWarning()
	RecordSegmentLookup(result SegmentLookupResult)
	RecordTCFVersion(version uint8)
	RecordNewConnection()
	RecordClosedConnection()
}
