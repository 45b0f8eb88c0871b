// Package severity provides severity level constants for issues reported by
// the request and response validation paths.
//
// Request-gating failures are reported at SeverityError; response contract
// violations, which are observed rather than enforced, default to
// SeverityWarning. SeverityInfo carries non-actionable notices.
package severity

// Severity indicates the severity level of a validation issue.
type Severity int

const (
	// SeverityError indicates a violation that gates the request: the value
	// failed a declared rule and the request must not reach the handler.
	SeverityError Severity = iota

	// SeverityWarning indicates a violation that is observed but not
	// enforced, such as a response body that breaks its declared contract
	// after the response has already been decided.
	SeverityWarning

	// SeverityInfo indicates informational notices that may help debugging.
	SeverityInfo
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}
