package gdpr

import (
	"errors"
	"strconv"

	"github.com/prebid/go-gdpr/vendorconsent"
)

// Policy represents the GDPR state of one auction cycle. Both fields are optional: nil means
// the publisher's consent management platform did not report a value.
type Policy struct {
	Applies *bool
	Consent *string
}

// HasApplies reports whether applicability is known.
func (p Policy) HasApplies() bool {
	return p.Applies != nil
}

// HasConsent reports whether a consent string was supplied, even an empty one.
func (p Policy) HasConsent() bool {
	return p.Consent != nil
}

// Signal renders applicability as "true" or "false". Unknown applicability renders as "true",
// matching the exchange's assumption that GDPR applies unless told otherwise.
func (p Policy) Signal() string {
	if p.Applies == nil {
		return "true"
	}
	return strconv.FormatBool(*p.Applies)
}

// ConsentString returns the consent string or "" when none was supplied.
func (p Policy) ConsentString() string {
	if p.Consent == nil {
		return ""
	}
	return *p.Consent
}

// ValidateConsent decodes a TCF consent string and returns its version. The string is never
// rewritten; callers only use the result for warnings and metrics.
func ValidateConsent(consent string) (uint8, error) {
	if consent == "" {
		return 0, errors.New("consent string is empty")
	}
	parsed, err := vendorconsent.ParseString(consent)
	if err != nil {
		return 0, err
	}
	return parsed.Version(), nil
}
