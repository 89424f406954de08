package metrics

import (
	"time"

	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordRequest mock
func (me *MetricsEngineMock) RecordRequest(labels Labels) {
	me.Called(labels)
}

// RecordRequestTime mock
func (me *MetricsEngineMock) RecordRequestTime(labels Labels, length time.Duration) {
	me.Called(labels, length)
}

// RecordAdapterRequest mock
func (me *MetricsEngineMock) RecordAdapterRequest(labels AdapterLabels) {
	me.Called(labels)
}

// RecordAdapterTime mock
func (me *MetricsEngineMock) RecordAdapterTime(labels AdapterLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordAdapterBid mock
func (me *MetricsEngineMock) RecordAdapterBid(bidType openrtb_ext.BidType, cpm float64) {
	me.Called(bidType, cpm)
}

// RecordDroppedBid mock
func (me *MetricsEngineMock) RecordDroppedBid(reason DropReason) {
	me.Called(reason)
}

// RecordIdentityWarning mock
func (me *MetricsEngineMock) RecordIdentityWarning() {
	me.Called()
}

// RecordSegmentLookup mock
func (me *MetricsEngineMock) RecordSegmentLookup(result SegmentLookupResult) {
	me.Called(result)
}

// RecordTCFVersion mock
func (me *MetricsEngineMock) RecordTCFVersion(version uint8) {
	me.Called(version)
}

// RecordNewConnection mock
func (me *MetricsEngineMock) RecordNewConnection() {
	me.Called()
}

// RecordClosedConnection mock
func (me *MetricsEngineMock) RecordClosedConnection() {
	me.Called()
}
