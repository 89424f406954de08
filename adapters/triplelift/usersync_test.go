package triplelift

import (
	"testing"

	"github.com/prebid/tlx-bridge/adapters"
	"github.com/prebid/tlx-bridge/privacy"
	"github.com/prebid/tlx-bridge/privacy/gdpr"
	"github.com/prebid/tlx-bridge/usersync"
	"github.com/prebid/tlx-bridge/util/ptrutil"
	"github.com/stretchr/testify/assert"
)

func TestUserSyncs(t *testing.T) {
	testCases := []struct {
		description   string
		options       usersync.Options
		gdpr          gdpr.Policy
		uspConsent    string
		expectedSyncs []usersync.Sync
	}{
		{
			description: "iframe-preferred",
			options:     usersync.Options{IframeEnabled: true, PixelEnabled: true},
			expectedSyncs: []usersync.Sync{
				{Type: usersync.SyncTypeIFrame, URL: "https://eb2.3lift.com/sync?"},
			},
		},
		{
			description: "image-only",
			options:     usersync.Options{PixelEnabled: true},
			expectedSyncs: []usersync.Sync{
				{Type: usersync.SyncTypeImage, URL: "https://eb2.3lift.com/sync?px=1&src=prebid"},
			},
		},
		{
			description: "neither-enabled",
			options:     usersync.Options{},
		},
		{
			description: "gdpr-consent-and-usp",
			options:     usersync.Options{IframeEnabled: true},
			gdpr:        gdpr.Policy{Applies: ptrutil.ToPtr(false), Consent: ptrutil.ToPtr("BOONm0NOONm0NABABAENAa-AAAARh7______b9_3__7_9uz_Kv_K7Vf7nnG072lPVA9LTOQ6gEaY")},
			uspConsent:  "1YNN",
			expectedSyncs: []usersync.Sync{
				{Type: usersync.SyncTypeIFrame, URL: "https://eb2.3lift.com/sync?gdpr=false&cmp_cs=BOONm0NOONm0NABABAENAa-AAAARh7______b9_3__7_9uz_Kv_K7Vf7nnG072lPVA9LTOQ6gEaY&us_privacy=1YNN"},
			},
		},
		{
			description: "consent-without-applicability-defaults-to-true",
			options:     usersync.Options{PixelEnabled: true},
			gdpr:        gdpr.Policy{Consent: ptrutil.ToPtr("abc")},
			expectedSyncs: []usersync.Sync{
				{Type: usersync.SyncTypeImage, URL: "https://eb2.3lift.com/sync?px=1&src=prebid&gdpr=true&cmp_cs=abc"},
			},
		},
		{
			description: "applicability-without-consent-is-omitted",
			options:     usersync.Options{IframeEnabled: true},
			gdpr:        gdpr.Policy{Applies: ptrutil.ToPtr(true)},
			uspConsent:  "1---",
			expectedSyncs: []usersync.Sync{
				{Type: usersync.SyncTypeIFrame, URL: "https://eb2.3lift.com/sync?us_privacy=1---"},
			},
		},
	}

	a := newTestAdapter(t, nil, nil)
	for _, test := range testCases {
		cycle := &adapters.Cycle{ID: "cycle-1", Privacy: privacy.Policies{GDPR: test.gdpr}}
		syncs := a.UserSyncs(cycle, test.options, test.uspConsent)
		assert.Equal(t, test.expectedSyncs, syncs, test.description)
	}
}

func TestUserSyncsWithoutCycle(t *testing.T) {
	a := newTestAdapter(t, nil, nil)

	syncs := a.UserSyncs(nil, usersync.Options{IframeEnabled: true}, "1YNN")
	assert.Equal(t, []usersync.Sync{{Type: usersync.SyncTypeIFrame, URL: "https://eb2.3lift.com/sync?us_privacy=1YNN"}}, syncs)
}
