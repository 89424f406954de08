package prometheusmetrics

import (
	"strconv"
	"time"

	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine implementation.
type Metrics struct {
	Registry *prometheus.Registry

	// General Metrics
	connectionsOpened prometheus.Counter
	connectionsClosed prometheus.Counter
	requests          *prometheus.CounterVec
	requestsTimer     *prometheus.HistogramVec

	// Adapter Metrics
	adapterRequests      *prometheus.CounterVec
	adapterRequestsTimer *prometheus.HistogramVec
	adapterBids          *prometheus.CounterVec
	adapterPrices        *prometheus.HistogramVec
	adapterDroppedBids   *prometheus.CounterVec

	// Enrichment Metrics
	identityWarnings prometheus.Counter
	segmentLookups   *prometheus.CounterVec
	privacyTCF       *prometheus.CounterVec
}

const (
	bidTypeLabel       = "bid_type"
	dropReasonLabel    = "drop_reason"
	payloadKindLabel   = "payload"
	requestStatusLabel = "request_status"
	requestTypeLabel   = "request_type"
	resultLabel        = "result"
	versionLabel       = "version"
)

// NewMetrics initializes a new Prometheus metrics instance with preloaded label values.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	standardTimeBuckets := []float64{0.05, 0.1, 0.15, 0.20, 0.25, 0.3, 0.4, 0.5, 0.75, 1}
	priceBuckets := []float64{0.25, 0.5, 1, 2, 3, 5, 10, 20, 50}

	metrics := Metrics{}
	metrics.Registry = prometheus.NewRegistry()

	metrics.connectionsOpened = newCounterWithoutLabels(cfg, metrics.Registry,
		"connections_opened",
		"Count of successful connections opened to the bridge.")

	metrics.connectionsClosed = newCounterWithoutLabels(cfg, metrics.Registry,
		"connections_closed",
		"Count of connections to the bridge that have been closed.")

	metrics.requests = newCounter(cfg, metrics.Registry,
		"requests",
		"Count of total requests to the bridge labeled by type and status.",
		[]string{requestTypeLabel, requestStatusLabel})

	metrics.requestsTimer = newHistogramVec(cfg, metrics.Registry,
		"request_time_seconds",
		"Seconds to resolve successful requests labeled by type.",
		[]string{requestTypeLabel},
		standardTimeBuckets)

	metrics.adapterRequests = newCounter(cfg, metrics.Registry,
		"adapter_requests",
		"Count of requests sent to the exchange labeled by payload and status.",
		[]string{payloadKindLabel, requestStatusLabel})

	metrics.adapterRequestsTimer = newHistogramVec(cfg, metrics.Registry,
		"adapter_request_time_seconds",
		"Seconds to resolve each exchange request labeled by payload.",
		[]string{payloadKindLabel},
		standardTimeBuckets)

	metrics.adapterBids = newCounter(cfg, metrics.Registry,
		"adapter_bids",
		"Count of bid results labeled by bid type.",
		[]string{bidTypeLabel})

	metrics.adapterPrices = newHistogramVec(cfg, metrics.Registry,
		"adapter_prices",
		"CPM of bid results labeled by bid type.",
		[]string{bidTypeLabel},
		priceBuckets)

	metrics.adapterDroppedBids = newCounter(cfg, metrics.Registry,
		"adapter_dropped_bids",
		"Count of exchange bids that produced no bid result labeled by reason.",
		[]string{dropReasonLabel})

	metrics.identityWarnings = newCounterWithoutLabels(cfg, metrics.Registry,
		"identity_warnings",
		"Count of batches where an invalid identity value was dropped.")

	metrics.segmentLookups = newCounter(cfg, metrics.Registry,
		"segment_lookups",
		"Count of segment storage lookups labeled by result.",
		[]string{resultLabel})

	metrics.privacyTCF = newCounter(cfg, metrics.Registry,
		"privacy_tcf",
		"Count of TCF versions seen in consent strings.",
		[]string{versionLabel})

	preloadLabelValues(&metrics)

	return &metrics
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(counter)
	return counter
}

func newCounterWithoutLabels(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Counter {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	counter := prometheus.NewCounter(opts)
	registry.MustRegister(counter)
	return counter
}

func newHistogramVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	histogram := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(histogram)
	return histogram
}

// preloadLabelValues makes every known series visible at zero before the first observation.
func preloadLabelValues(m *Metrics) {
	for _, rType := range metrics.RequestTypes() {
		for _, status := range metrics.RequestStatuses() {
			m.requests.With(prometheus.Labels{
				requestTypeLabel:   string(rType),
				requestStatusLabel: string(status),
			})
		}
	}

	for _, kind := range openrtb_ext.PayloadKinds() {
		for _, status := range metrics.RequestStatuses() {
			m.adapterRequests.With(prometheus.Labels{
				payloadKindLabel:   string(kind),
				requestStatusLabel: string(status),
			})
		}
	}

	for _, bidType := range openrtb_ext.BidTypes() {
		m.adapterBids.With(prometheus.Labels{bidTypeLabel: string(bidType)})
	}

	for _, reason := range metrics.DropReasons() {
		m.adapterDroppedBids.With(prometheus.Labels{dropReasonLabel: string(reason)})
	}

	for _, result := range metrics.SegmentLookupResults() {
		m.segmentLookups.With(prometheus.Labels{resultLabel: string(result)})
	}
}

func (m *Metrics) RecordNewConnection() {
	m.connectionsOpened.Inc()
}

func (m *Metrics) RecordClosedConnection() {
	m.connectionsClosed.Inc()
}

func (m *Metrics) RecordRequest(labels metrics.Labels) {
	m.requests.With(prometheus.Labels{
		requestTypeLabel:   string(labels.RType),
		requestStatusLabel: string(labels.RequestStatus),
	}).Inc()
}

func (m *Metrics) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	if labels.RequestStatus == metrics.RequestStatusOK {
		m.requestsTimer.With(prometheus.Labels{
			requestTypeLabel: string(labels.RType),
		}).Observe(length.Seconds())
	}
}

func (m *Metrics) RecordAdapterRequest(labels metrics.AdapterLabels) {
	m.adapterRequests.With(prometheus.Labels{
		payloadKindLabel:   string(labels.PayloadKind),
		requestStatusLabel: string(labels.RequestStatus),
	}).Inc()
}

func (m *Metrics) RecordAdapterTime(labels metrics.AdapterLabels, length time.Duration) {
	m.adapterRequestsTimer.With(prometheus.Labels{
		payloadKindLabel: string(labels.PayloadKind),
	}).Observe(length.Seconds())
}

func (m *Metrics) RecordAdapterBid(bidType openrtb_ext.BidType, cpm float64) {
	m.adapterBids.With(prometheus.Labels{
		bidTypeLabel: string(bidType),
	}).Inc()
	m.adapterPrices.With(prometheus.Labels{
		bidTypeLabel: string(bidType),
	}).Observe(cpm)
}

func (m *Metrics) RecordDroppedBid(reason metrics.DropReason) {
	m.adapterDroppedBids.With(prometheus.Labels{
		dropReasonLabel: string(reason),
	}).Inc()
}

func (m *Metrics) RecordIdentityWarning() {
	m.identityWarnings.Inc()
}

func (m *Metrics) RecordSegmentLookup(result metrics.SegmentLookupResult) {
	m.segmentLookups.With(prometheus.Labels{
		resultLabel: string(result),
	}).Inc()
}

func (m *Metrics) RecordTCFVersion(version uint8) {
	m.privacyTCF.With(prometheus.Labels{
		versionLabel: strconv.Itoa(int(version)),
	}).Inc()
}
