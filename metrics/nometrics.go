package metrics

import (
	"time"

	"github.com/prebid/tlx-bridge/openrtb_ext"
)

// This file provides a no-op implementation of MetricsEngine.
// The server code can use this if it doesn't want to export metrics anywhere.

func NewNilMetrics() MetricsEngine {
	return &nilMetrics{}
}

type nilMetrics struct{}

func (m *nilMetrics) RecordRequest(labels Labels) {}

func (m *nilMetrics) RecordRequestTime(labels Labels, length time.Duration) {}

func (m *nilMetrics) RecordAdapterRequest(labels AdapterLabels) {}

func (m *nilMetrics) RecordAdapterTime(labels AdapterLabels, length time.Duration) {}

func (m *nilMetrics) RecordAdapterBid(bidType openrtb_ext.BidType, cpm float64) {}

func (m *nilMetrics) RecordDroppedBid(reason DropReason) {}

func (m *nilMetrics) RecordIdentityWarning() {}

func (m *nilMetrics) RecordSegmentLookup(result SegmentLookupResult) {}

func (m *nilMetrics) RecordTCFVersion(version uint8) {}

func (m *nilMetrics) RecordNewConnection() {}

func (m *nilMetrics) RecordClosedConnection() {}
