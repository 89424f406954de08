package triplelift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gofrs/uuid"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/cache"
	"github.com/prebid/tlx-bridge/config"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/logger"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/privacy"
	"github.com/prebid/tlx-bridge/privacy/ccpa"
	"github.com/prebid/tlx-bridge/privacy/gdpr"
	"github.com/prebid/tlx-bridge/usersync"
)

const (
	bidderName           = "triplelift"
	defaultStorageWindow = 50 * time.Millisecond
)

type adapter struct {
	endpoint       string
	nativeEndpoint string
	version        string
	coppa          bool
	syncer         usersync.Syncer
	segments       cache.Cache
	storageTimeout time.Duration
	metrics        metrics.MetricsEngine
	newCycleID     func() (string, error)
}

// Builder builds a new instance of the Triplelift adapter for the given config. segments is the
// storage the segment blob is read from.
func Builder(cfg *config.Configuration, segments cache.Cache, me metrics.MetricsEngine) (adapters.Bidder, error) {
	syncer, err := usersync.NewSyncer(bidderName, cfg.Adapter.UserSyncURL)
	if err != nil {
		return nil, err
	}

	if segments == nil {
		segments = cache.NewDummyCache()
	}
	if me == nil {
		me = metrics.NewNilMetrics()
	}

	storageTimeout := time.Duration(cfg.Storage.TimeoutMS) * time.Millisecond
	if storageTimeout <= 0 {
		storageTimeout = defaultStorageWindow
	}

	bidder := &adapter{
		endpoint:       cfg.Adapter.Endpoint,
		nativeEndpoint: cfg.Adapter.NativeEndpoint,
		version:        cfg.Version,
		coppa:          cfg.COPPA,
		syncer:         syncer,
		segments:       segments,
		storageTimeout: storageTimeout,
		metrics:        me,
		newCycleID:     newUUID,
	}
	return bidder, nil
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (a *adapter) MakeRequests(ctx context.Context, request *adapters.BidRequest) (*adapters.Cycle, []*adapters.RequestData, []error) {
	var errs []error

	slots := make([]adapters.AdSlot, 0, len(request.Slots))
	for i := range request.Slots {
		if err := IsValidSlot(&request.Slots[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		slots = append(slots, request.Slots[i])
	}
	if len(slots) == 0 {
		errs = append(errs, &errortypes.FailedToRequestBids{Message: "No valid ad slots for triplelift"})
		return nil, nil, errs
	}

	cycleID, err := a.newCycleID()
	if err != nil {
		return nil, nil, append(errs, fmt.Errorf("failed to generate cycle id: %v", err))
	}

	cycle := &adapters.Cycle{
		ID:      cycleID,
		Slots:   slots,
		Privacy: a.policies(&request.Auction),
	}

	tcfVersion, privacyWarnings := cycle.Privacy.Validate()
	if cycle.Privacy.GDPR.ConsentString() != "" {
		a.metrics.RecordTCFVersion(tcfVersion)
	}
	errs = append(errs, a.warn(privacyWarnings)...)

	payloads, buildErrs := a.buildPayloads(ctx, ClassifyAdUnits(slots), slots, &request.Auction)
	errs = append(errs, a.warn(buildErrs)...)

	headers := http.Header{}
	headers.Add("Content-Type", "application/json;charset=utf-8")
	headers.Add("Accept", "application/json")

	reqs := make([]*adapters.RequestData, 0, len(payloads))
	for _, p := range payloads {
		body, err := json.Marshal(p.payload)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		uri := a.buildEndpoint(p.kind, &request.Auction, cycle.Privacy)
		logger.Debugf("triplelift %s request built for cycle %s: %s", p.kind, cycle.ID, uri)
		reqs = append(reqs, &adapters.RequestData{
			Method:  http.MethodPost,
			Uri:     uri,
			Body:    body,
			Headers: headers.Clone(),
			Kind:    p.kind,
		})
	}
	return cycle, reqs, errs
}

// policies captures the privacy state of the cycle at build time.
func (a *adapter) policies(auction *adapters.AuctionContext) privacy.Policies {
	policies := privacy.Policies{
		CCPA:  ccpa.Policy{Consent: auction.USPConsent},
		COPPA: a.coppa || auction.COPPA,
	}
	if auction.GDPRConsent != nil {
		policies.GDPR = gdpr.Policy{
			Applies: auction.GDPRConsent.GDPRApplies,
			Consent: auction.GDPRConsent.ConsentString,
		}
	}
	return policies
}

// IsValidSlot reports whether a slot can be sent to the exchange: its params must carry an
// inventoryCode.
func IsValidSlot(slot *adapters.AdSlot) error {
	_, dataType, _, err := jsonparser.Get(slot.Params, "inventoryCode")
	if err != nil || dataType == jsonparser.Null {
		return &errortypes.BadInput{
			Message: fmt.Sprintf("ad slot %s is missing params.inventoryCode", slot.BidID),
		}
	}
	if _, err := parseParams(slot); err != nil {
		return &errortypes.BadInput{
			Message: fmt.Sprintf("ad slot %s has invalid params: %v", slot.BidID, err),
		}
	}
	return nil
}

// parseParams never returns nil, so callers working on validated slots may ignore the error.
func parseParams(slot *adapters.AdSlot) (*openrtb_ext.ExtImpTriplelift, error) {
	var params openrtb_ext.ExtImpTriplelift
	if len(slot.Params) == 0 {
		return &params, errors.New("params are missing")
	}
	if err := json.Unmarshal(slot.Params, &params); err != nil {
		return &openrtb_ext.ExtImpTriplelift{}, err
	}
	return &params, nil
}

// warn logs the warnings it is handed and passes them through.
func (a *adapter) warn(errs []error) []error {
	for _, err := range errs {
		logger.Warnf("triplelift: %v", err)
	}
	return errs
}
