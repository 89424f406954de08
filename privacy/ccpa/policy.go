package ccpa

import (
	"errors"
)

const (
	ccpaVersion1      = '1'
	ccpaYes           = 'Y'
	ccpaNo            = 'N'
	ccpaNotApplicable = '-'
)

const (
	indexVersion                = 0
	indexExplicitNotice         = 1
	indexOptOutSale             = 2
	indexLSPACoveredTransaction = 3
)

// Policy represents the CCPA (US Privacy) state of one auction cycle.
type Policy struct {
	Consent string
}

// ValidateConsent returns an error if the US Privacy consent string does not adhere to the
// IAB format. An empty string is valid and means no signal.
func ValidateConsent(consent string) error {
	if consent == "" {
		return nil
	}

	if len(consent) != 4 {
		return errors.New("must contain 4 characters")
	}

	if consent[indexVersion] != ccpaVersion1 {
		return errors.New("must specify version 1")
	}

	if !validFlag(consent[indexExplicitNotice]) {
		return errors.New("must specify 'N', 'Y', or '-' for the explicit notice")
	}

	if !validFlag(consent[indexOptOutSale]) {
		return errors.New("must specify 'N', 'Y', or '-' for the opt-out sale")
	}

	if !validFlag(consent[indexLSPACoveredTransaction]) {
		return errors.New("must specify 'N', 'Y', or '-' for the limited service provider agreement")
	}

	return nil
}

func validFlag(c byte) bool {
	return c == ccpaNo || c == ccpaYes || c == ccpaNotApplicable
}
