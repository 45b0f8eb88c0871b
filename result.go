package opcheck

import (
	"github.com/opcheck-dev/opcheck/internal/issues"
	"github.com/opcheck-dev/opcheck/internal/severity"
)

// Issue represents a single validation issue.
// This is an alias to issues.Issue for consistency across opcheck packages.
type Issue = issues.Issue

// Severity levels for validation issues.
type Severity = severity.Severity

// Severity constants re-exported for convenience.
const (
	SeverityError   = severity.SeverityError
	SeverityWarning = severity.SeverityWarning
	SeverityInfo    = severity.SeverityInfo
)

// RequestResult contains the outcome of populating a request against its
// declared parameter rules.
//
// Population is fail-fast: an invalid result carries exactly one issue, the
// first rule violation encountered in catalog order. A result is immutable
// once returned; call Release when done to return it to the pool.
type RequestResult struct {
	// Valid is true if every declared parameter passed its rules.
	Valid bool

	// Operation is the catalog operation the request was populated against.
	Operation string

	// Params maps parameter name to its final (possibly coerced) value.
	// Optional parameters that were absent are omitted.
	Params map[string]any

	// Issues contains the rule violation when Valid is false.
	Issues []Issue
}

// ElementOutcome is the validation outcome for one element of a list-shaped
// response body.
type ElementOutcome struct {
	// Index is the element's position in the response list.
	Index int

	// Valid is true if the element conforms to the contract schema.
	Valid bool

	// Issues contains the element's schema violations. Paths are relative
	// to the element, not the enclosing list.
	Issues []Issue
}

// ResponseResult contains the outcome of validating a response body against
// the operation's declared contract.
//
// Response validation observes rather than gates: issues are reported at
// warning severity and the caller decides whether to log or act. Call
// Release when done to return the result to the pool.
type ResponseResult struct {
	// Valid is true if the response conforms to its contract, or if no
	// contract matched the status code.
	Valid bool

	// Operation is the catalog operation the response belongs to.
	Operation string

	// Status is the HTTP status code of the response.
	Status int

	// Matched is true if a declared contract matched the status code.
	Matched bool

	// Issues contains body-level problems: decode failures, a missing body
	// the contract promised, or single-shape schema violations.
	Issues []Issue

	// Elements holds the ordered per-element outcomes for list-shaped
	// contracts. Nil for other shapes.
	Elements []ElementOutcome
}

// fail records the issue and marks the result invalid.
func (r *RequestResult) fail(iss Issue) {
	r.Valid = false
	r.Issues = append(r.Issues, iss)
}

// addIssue adds a body-level issue to the response result and marks it
// invalid.
func (r *ResponseResult) addIssue(iss Issue) {
	r.Valid = false
	r.Issues = append(r.Issues, iss)
}

// addElement appends one element outcome, propagating its validity.
func (r *ResponseResult) addElement(e ElementOutcome) {
	if !e.Valid {
		r.Valid = false
	}
	r.Elements = append(r.Elements, e)
}

// reset clears the result for reuse from pool.
func (r *RequestResult) reset() {
	r.Valid = true
	r.Operation = ""
	r.Issues = r.Issues[:0]
	clear(r.Params)
}

// reset clears the result for reuse from pool.
func (r *ResponseResult) reset() {
	r.Valid = true
	r.Operation = ""
	r.Status = 0
	r.Matched = false
	r.Issues = r.Issues[:0]
	r.Elements = r.Elements[:0]
}
