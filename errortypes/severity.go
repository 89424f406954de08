package errortypes

// Severity represents the severity level of a translation error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal represents an error which prevents a request or a bid from being produced.
	SeverityFatal

	// SeverityWarning represents a non-fatal error where invalid or ambiguous data was dropped
	// and processing continued.
	SeverityWarning
)

func isFatal(err error) bool {
	s, ok := err.(Coder)
	return !ok || s.Severity() == SeverityFatal
}

// IsWarning returns true if an error is labeled with a Severity of SeverityWarning.
func IsWarning(err error) bool {
	s, ok := err.(Coder)
	return ok && s.Severity() == SeverityWarning
}

// ContainsFatalError checks if the error list contains a fatal error.
func ContainsFatalError(errors []error) bool {
	for _, err := range errors {
		if isFatal(err) {
			return true
		}
	}
	return false
}

// FatalOnly returns a new error list with only the fatal severity errors.
func FatalOnly(errs []error) []error {
	return filter(errs, isFatal)
}

// WarningOnly returns a new error list with only the warning severity errors.
func WarningOnly(errs []error) []error {
	return filter(errs, IsWarning)
}

func filter(errs []error, keep func(error) bool) []error {
	kept := make([]error, 0, len(errs))
	for _, err := range errs {
		if keep(err) {
			kept = append(kept, err)
		}
	}
	return kept
}
