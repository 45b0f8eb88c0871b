// Package issues provides a unified issue type for request and response
// validation problems.
package issues

import (
	"fmt"

	"github.com/opcheck-dev/opcheck/internal/severity"
)

// Issue represents a single problem found while validating a request
// parameter or a response body.
type Issue struct {
	// Param is the parameter name the issue belongs to. Empty for response
	// body issues, which are identified by Path instead.
	Param string
	// Source is where the value was read from: "query", "header", "path",
	// or "body". Empty for response issues.
	Source string
	// Rule is the tag of the violated rule (e.g. "required", "enum",
	// "schema"). Empty for decode failures.
	Rule string
	// Message is a human-readable description of the issue
	Message string
	// Severity indicates the severity level of the issue
	Severity severity.Severity
	// Value is the offending raw value (optional)
	Value any
	// Path locates the mismatch inside a structured value for schema
	// failures (e.g. "/photoUrls/1"). Empty otherwise.
	Path string
}

// String returns a formatted string representation of the issue.
// Uses different symbols based on severity level:
// - "✗" for Error severity
// - "⚠" for Warning severity
// - "ℹ" for Info severity
func (i Issue) String() string {
	var symbol string
	switch i.Severity {
	case severity.SeverityError:
		symbol = "✗"
	case severity.SeverityWarning:
		symbol = "⚠"
	case severity.SeverityInfo:
		symbol = "ℹ"
	default:
		symbol = "?"
	}

	subject := i.Param
	if subject == "" && i.Path != "" {
		subject = i.Path
	}
	if subject == "" {
		subject = "body"
	}
	if i.Param != "" && i.Path != "" {
		subject = fmt.Sprintf("%s%s", i.Param, i.Path)
	}

	result := fmt.Sprintf("%s %s: %s", symbol, subject, i.Message)
	if i.Rule != "" {
		result += fmt.Sprintf(" [%s]", i.Rule)
	}
	return result
}
