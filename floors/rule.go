package floors

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

const defaultDelimiter string = "|"

// Rules is a rule-table floor configuration. Values are keyed by "<mediaType>|<size>" where
// either field may be the catch-all "*".
type Rules struct {
	Currency  string             `json:"currency,omitempty"`
	Delimiter string             `json:"delimiter,omitempty"`
	Values    map[string]float64 `json:"values,omitempty"`
	Default   *float64           `json:"default,omitempty"`
}

// RuleProvider answers floor queries from a validated rule table.
type RuleProvider struct {
	currency     string
	delimiter    string
	values       map[string]float64
	defaultFloor *float64
}

// NewRuleProvider validates the rules and builds a provider. Invalid rules are dropped and
// reported; the remaining rules stay usable.
func NewRuleProvider(rules Rules) (*RuleProvider, []error) {
	provider := &RuleProvider{
		currency:     rules.Currency,
		delimiter:    rules.Delimiter,
		defaultFloor: rules.Default,
	}
	if provider.delimiter == "" {
		provider.delimiter = defaultDelimiter
	}

	var errs []error
	provider.values, errs = validateRules(rules.Values, provider.delimiter)
	if provider.currency == "" {
		provider.currency = DefaultCurrency
	} else if unit, err := currency.ParseISO(provider.currency); err != nil {
		// Kept as given: floors in an unknown currency never match a USD query.
		errs = append(errs, errInvalidCurrency(provider.currency))
	} else {
		provider.currency = unit.String()
	}
	if provider.defaultFloor != nil && *provider.defaultFloor < 0 {
		errs = append(errs, errNegativeDefault(*provider.defaultFloor))
		provider.defaultFloor = nil
	}
	return provider, errs
}

// ParseRules decodes a JSON rule table and builds a provider from it.
func ParseRules(data json.RawMessage) (*RuleProvider, []error) {
	var rules Rules
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, []error{err}
	}
	return NewRuleProvider(rules)
}

// GetFloor finds the most specific matching rule: exact, mediaType|*, *|size, *|*, then the
// default value.
func (p *RuleProvider) GetFloor(query Query) (Price, bool) {
	for _, key := range p.ruleKeys(query) {
		if value, ok := p.values[key]; ok {
			return p.price(value), true
		}
	}
	if p.defaultFloor != nil {
		return p.price(*p.defaultFloor), true
	}
	return Price{}, false
}

func (p *RuleProvider) ruleKeys(query Query) []string {
	mediaType := strings.ToLower(string(query.MediaType))
	size := strings.ToLower(query.Size)
	if mediaType == "" {
		mediaType = CatchAll
	}
	if size == "" {
		size = CatchAll
	}

	combinations := [][2]string{
		{mediaType, size},
		{mediaType, CatchAll},
		{CatchAll, size},
		{CatchAll, CatchAll},
	}

	keys := make([]string, 0, len(combinations))
	seen := make(map[string]struct{}, len(combinations))
	for _, combination := range combinations {
		key := combination[0] + p.delimiter + combination[1]
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

func (p *RuleProvider) price(value float64) Price {
	return Price{
		Currency: p.currency,
		Floor:    json.Number(strconv.FormatFloat(value, 'f', -1, 64)),
	}
}
