package triplelift

import (
	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/privacy"
	"github.com/prebid/tlx-bridge/privacy/ccpa"
	"github.com/prebid/tlx-bridge/usersync"
)

// UserSyncs returns at most one sync, preferring an iframe over a pixel. GDPR state comes from
// the cycle the sync follows.
func (a *adapter) UserSyncs(cycle *adapters.Cycle, options usersync.Options, uspConsent string) []usersync.Sync {
	policies := privacy.Policies{
		CCPA: ccpa.Policy{Consent: uspConsent},
	}
	if cycle != nil {
		policies.GDPR = cycle.Privacy.GDPR
	}

	sync, err := a.syncer.GetSync(options.SyncTypes(), policies)
	if err != nil {
		return nil
	}
	return []usersync.Sync{sync}
}
