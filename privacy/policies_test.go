package privacy

import (
	"testing"

	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/privacy/ccpa"
	"github.com/prebid/tlx-bridge/privacy/gdpr"
	"github.com/prebid/tlx-bridge/util/ptrutil"
	"github.com/stretchr/testify/assert"
)

func TestPoliciesValidate(t *testing.T) {
	testCases := []struct {
		description     string
		policies        Policies
		expectedVersion uint8
		expectedCount   int
	}{
		{
			description: "no-signals",
			policies:    Policies{},
		},
		{
			description:     "valid-tcf2-and-usp",
			policies:        Policies{GDPR: gdpr.Policy{Consent: ptrutil.ToPtr("COzTVhaOzTVhaGvAAAENAiCIAP_AAH_AAAAAAEEUACCKAAA")}, CCPA: ccpa.Policy{Consent: "1YNN"}},
			expectedVersion: 2,
		},
		{
			description:   "malformed-both",
			policies:      Policies{GDPR: gdpr.Policy{Consent: ptrutil.ToPtr("xyz")}, CCPA: ccpa.Policy{Consent: "bad"}},
			expectedCount: 2,
		},
		{
			description: "empty-consent-is-not-validated",
			policies:    Policies{GDPR: gdpr.Policy{Consent: ptrutil.ToPtr("")}},
		},
	}

	for _, test := range testCases {
		version, warnings := test.policies.Validate()
		assert.Equal(t, test.expectedVersion, version, test.description)
		assert.Len(t, warnings, test.expectedCount, test.description)
		for _, w := range warnings {
			assert.True(t, errortypes.IsWarning(w), test.description)
			assert.Equal(t, errortypes.InvalidPrivacyConsentWarningCode, errortypes.ReadCode(w), test.description)
		}
	}
}
