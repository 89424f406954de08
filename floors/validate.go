package floors

import (
	"fmt"
	"strings"
)

const ruleFieldCount = 2

func validateRules(ruleValues map[string]float64, delimiter string) (map[string]float64, []error) {
	var errs []error
	valid := make(map[string]float64, len(ruleValues))
	for key, val := range ruleValues {
		parsedKey := strings.Split(key, delimiter)
		if len(parsedKey) != ruleFieldCount {
			errs = append(errs, fmt.Errorf("Invalid Floor Rule = '%s', expected mediaType%ssize", key, delimiter))
			continue
		}
		if val < 0 {
			errs = append(errs, fmt.Errorf("Invalid Floor Rule = '%s' due to negative value = '%v'", key, val))
			continue
		}
		valid[strings.ToLower(key)] = val
	}
	return valid, errs
}

func errNegativeDefault(value float64) error {
	return fmt.Errorf("Invalid Floor Default = '%v', must not be negative", value)
}

func errInvalidCurrency(code string) error {
	return fmt.Errorf("Invalid Floor Currency = '%s', expected an ISO 4217 code", code)
}
