package floors

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/prebid/tlx-bridge/openrtb_ext"
)

const (
	// CatchAll matches any value of a query field.
	CatchAll string = "*"
	// DefaultCurrency is the only currency floors are asserted in.
	DefaultCurrency string = "USD"
)

// Query is the canonical question asked of a floor provider for one ad slot.
type Query struct {
	Currency  string
	MediaType openrtb_ext.BidType
	Size      string
}

// Price is a provider's answer. Floor is kept as a JSON number so providers may answer with
// either a string ("2.5") or a numeric value.
type Price struct {
	Currency string      `json:"currency"`
	Floor    json.Number `json:"floor"`
}

// Provider resolves a dynamic floor for a slot. ok is false when the provider asserts nothing.
type Provider interface {
	GetFloor(query Query) (price Price, ok bool)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(query Query) (Price, bool)

func (f ProviderFunc) GetFloor(query Query) (Price, bool) {
	return f(query)
}

// NewQuery builds the canonical query for the given media type.
func NewQuery(mediaType openrtb_ext.BidType) Query {
	return Query{
		Currency:  DefaultCurrency,
		MediaType: mediaType,
		Size:      CatchAll,
	}
}

// Value returns the numeric floor when the price is in USD and parses as a float.
func (p Price) Value() (float64, bool) {
	if p.Currency != DefaultCurrency {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(p.Floor)), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
