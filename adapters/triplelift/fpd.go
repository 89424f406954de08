package triplelift

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/cache"
	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/firstpartydata"
	"github.com/prebid/tlx-bridge/metrics"
	"github.com/prebid/tlx-bridge/util/jsonutil"
)

const (
	segmentStorageKey = "opecloud_ctx"
	segmentName       = "www.1plusx.com"
)

type segmentEntry struct {
	Name string          `json:"name"`
	Ext  json.RawMessage `json:"ext"`
}

// PayloadExt is the shared extension block attached identically to both payloads.
type PayloadExt struct {
	SChain json.RawMessage        `json:"schain,omitempty"`
	FPD    *firstpartydata.Global `json:"fpd,omitempty"`
}

// buildExt combines the supply chain with the global first-party data. It returns nil when
// both are empty. The supply chain of the batch context wins over the first slot's.
func (a *adapter) buildExt(ctx context.Context, auction *adapters.AuctionContext, slots []adapters.AdSlot) (*PayloadExt, []error) {
	ext := &PayloadExt{}

	schain := auction.SChain
	if jsonutil.IsEmpty(schain) && len(slots) > 0 {
		schain = slots[0].SChain
	}
	if !jsonutil.IsEmpty(schain) {
		ext.SChain = jsonutil.Clone(schain)
	}

	fpd, errs := a.globalFPD(ctx, auction)
	ext.FPD = fpd

	if ext.SChain == nil && ext.FPD == nil {
		return nil, errs
	}
	return ext, errs
}

// globalFPD merges site and user first-party data and, when stored, the segment blob.
func (a *adapter) globalFPD(ctx context.Context, auction *adapters.AuctionContext) (*firstpartydata.Global, []error) {
	var errs []error

	global, fpdErrs := firstpartydata.ExtractGlobalFPD(auction.Ortb2.Site, auction.Ortb2.User)
	for _, err := range fpdErrs {
		errs = append(errs, &errortypes.Warning{
			Message:     fmt.Sprintf("first party data ignored: %v", err),
			WarningCode: errortypes.InvalidFirstPartyDataWarningCode,
		})
	}

	segment, err := a.segmentData(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	if segment == nil {
		return global, errs
	}

	entry, err := json.Marshal(segmentEntry{Name: segmentName, Ext: segment})
	if err != nil {
		return global, append(errs, err)
	}
	if global == nil {
		global = &firstpartydata.Global{}
	}
	user, err := firstpartydata.AppendUserData(global.User, entry)
	if err != nil {
		errs = append(errs, &errortypes.Warning{
			Message:     fmt.Sprintf("segment data not added: %v", err),
			WarningCode: errortypes.InvalidSegmentDataWarningCode,
		})
	}
	global.User = user
	return global, errs
}

// segmentData reads the segment blob from storage. A missing, empty or falsy value yields
// nil. Storage and parse failures degrade to nil with a warning.
func (a *adapter) segmentData(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, a.storageTimeout)
	defer cancel()

	value, err := a.segments.Get(ctx, segmentStorageKey)
	if errors.Is(err, cache.ErrNotFound) {
		a.metrics.RecordSegmentLookup(metrics.SegmentLookupMiss)
		return nil, nil
	}
	if err != nil {
		a.metrics.RecordSegmentLookup(metrics.SegmentLookupError)
		return nil, &errortypes.Warning{
			Message:     fmt.Sprintf("segment data lookup failed: %v", err),
			WarningCode: errortypes.InvalidSegmentDataWarningCode,
		}
	}

	segment := json.RawMessage(value)
	if !json.Valid(segment) {
		a.metrics.RecordSegmentLookup(metrics.SegmentLookupInvalid)
		return nil, &errortypes.Warning{
			Message:     "segment data is not valid JSON",
			WarningCode: errortypes.InvalidSegmentDataWarningCode,
		}
	}
	if falsyJSON(segment) {
		a.metrics.RecordSegmentLookup(metrics.SegmentLookupMiss)
		return nil, nil
	}

	a.metrics.RecordSegmentLookup(metrics.SegmentLookupHit)
	return segment, nil
}

func falsyJSON(data json.RawMessage) bool {
	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return true
	}
	switch dataType {
	case jsonparser.Null:
		return true
	case jsonparser.Boolean:
		return string(value) == "false"
	case jsonparser.Number:
		number, err := jsonparser.ParseFloat(value)
		return err == nil && number == 0
	case jsonparser.String:
		return len(value) == 0
	}
	return false
}
