package privacy

import (
	"fmt"

	"github.com/prebid/tlx-bridge/errortypes"
	"github.com/prebid/tlx-bridge/privacy/ccpa"
	"github.com/prebid/tlx-bridge/privacy/gdpr"
)

// Policies represents the privacy regulations of one auction cycle. A value is created when
// requests are built and carried to the later user sync step of the same cycle.
type Policies struct {
	GDPR  gdpr.Policy
	CCPA  ccpa.Policy
	COPPA bool
}

// Validate inspects the consent values without altering them. Malformed values produce
// warnings only; the raw strings are still forwarded to the exchange. The TCF version is 0
// when no consent string was decodable.
func (p Policies) Validate() (tcfVersion uint8, warnings []error) {
	if consent := p.GDPR.ConsentString(); consent != "" {
		version, err := gdpr.ValidateConsent(consent)
		if err != nil {
			warnings = append(warnings, &errortypes.Warning{
				Message:     fmt.Sprintf("gdpr consent string is malformed and is forwarded as-is: %v", err),
				WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
			})
		}
		tcfVersion = version
	}

	if err := ccpa.ValidateConsent(p.CCPA.Consent); err != nil {
		warnings = append(warnings, &errortypes.Warning{
			Message:     fmt.Sprintf("us_privacy string is malformed and is forwarded as-is: %v", err),
			WarningCode: errortypes.InvalidPrivacyConsentWarningCode,
		})
	}

	return tcfVersion, warnings
}
