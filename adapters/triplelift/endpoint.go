package triplelift

import (
	"strconv"

	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/openrtb_ext"
	"github.com/prebid/tlx-bridge/privacy"
	"github.com/prebid/tlx-bridge/util/queryutil"
)

const libraryName = "prebid"

// buildEndpoint appends the query string contract to the payload's base URL. Parameter order is
// fixed: lib, v, referrer, tmax, gdpr, cmp_cs, us_privacy, coppa.
func (a *adapter) buildEndpoint(kind openrtb_ext.PayloadKind, auction *adapters.AuctionContext, policies privacy.Policies) string {
	base := a.endpoint
	if kind == openrtb_ext.PayloadKindNative {
		base = a.nativeEndpoint
	}

	b := queryutil.NewBuilder(base).
		Append("lib", libraryName).
		Append("v", a.version).
		Append("referrer", auction.Referrer)

	if auction.Timeout > 0 {
		b.Append("tmax", strconv.FormatInt(auction.Timeout, 10))
	}
	if policies.GDPR.HasApplies() {
		b.Append("gdpr", policies.GDPR.Signal())
	}
	if policies.GDPR.HasConsent() {
		b.Append("cmp_cs", policies.GDPR.ConsentString())
	}
	b.Append("us_privacy", policies.CCPA.Consent)
	if policies.COPPA {
		b.Append("coppa", "true")
	}

	return b.String()
}
