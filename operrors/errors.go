// Package operrors provides structured error types for opcheck.
//
// These error types enable programmatic error handling via errors.Is() and
// errors.As(), allowing callers to distinguish between different categories
// of errors and implement appropriate recovery strategies.
//
// # Error Categories
//
//   - ValidationError: a parameter or response body violated a declared rule
//   - DecodeError: the request or response body could not be decoded
//   - UnknownRuleError: the catalog carries a rule tag the engine does not know
//   - UnknownOperationError: a caller named an operation absent from the catalog
//   - SchemaLoadError: the schema document could not be read
//   - SchemaParseError: the schema document or a reference target is malformed
//   - ConfigError: invalid configuration or input options
//
// Catalog defects (unknown rules, unknown operations) additionally match the
// ErrCatalogDefect sentinel. They signal a build-time mismatch between the
// catalog and the caller's usage and must never be conflated with bad client
// input.
//
// # Usage with errors.Is
//
//	result, err := v.PopulateRequest("placeOrder", req)
//	if err != nil {
//	    if errors.Is(err, operrors.ErrCatalogDefect) {
//	        // Deployment defect: abort loudly, do not map to a client error.
//	    }
//	}
package operrors

import (
	"errors"
	"fmt"

	"github.com/opcheck-dev/opcheck/internal/stringutil"
)

// Sentinel errors for use with errors.Is().
// These allow quick checks without type assertions.
var (
	// ErrValidation indicates a value failed a declared validation rule.
	ErrValidation = errors.New("validation error")

	// ErrDecode indicates a body could not be decoded as structured data.
	ErrDecode = errors.New("decode error")

	// ErrCatalogDefect indicates a mismatch between the rule catalog and its
	// usage. This is a defect in the deployment, never a client input problem.
	ErrCatalogDefect = errors.New("catalog defect")

	// ErrUnknownRule indicates the catalog carries an unrecognized rule tag.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrUnknownOperation indicates an operation identifier is not in the catalog.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrSchemaLoad indicates the schema document could not be read.
	ErrSchemaLoad = errors.New("schema load error")

	// ErrSchemaParse indicates the schema document or a reference target is
	// not valid structured data.
	ErrSchemaParse = errors.New("schema parse error")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// maxValueChars caps how much of an offending value is rendered into error
// text so a hostile megabyte-sized input cannot balloon logs.
const maxValueChars = 120

func formatValue(v any) string {
	return stringutil.FormatValue(v, maxValueChars)
}

// SchemaDetail describes one structural schema violation: the violation kind,
// the sub-schema that was violated, and the location within the instance
// where the mismatch occurred. Nested causes mirror the schema engine's
// error tree.
type SchemaDetail struct {
	// Kind names the violated keyword or failure class (e.g. "required",
	// "items/type")
	Kind string
	// Message is the schema engine's rendering of the violation
	Message string
	// SchemaPath locates the violated sub-schema within the document
	SchemaPath string
	// InstancePath locates the mismatch within the validated value
	// (e.g. "/photoUrls/1")
	InstancePath string
	// Causes holds nested violations, if any
	Causes []*SchemaDetail
}

// String returns a compact single-line rendering of the detail.
func (d *SchemaDetail) String() string {
	msg := d.Kind
	if d.Message != "" {
		msg = d.Message
	}
	if d.InstancePath != "" {
		msg += " at " + d.InstancePath
	}
	if d.SchemaPath != "" {
		msg += " (schema " + d.SchemaPath + ")"
	}
	return msg
}

// Leaves returns the innermost violations, which usually carry the most
// specific diagnostics. A detail without causes is its own leaf.
func (d *SchemaDetail) Leaves() []*SchemaDetail {
	if len(d.Causes) == 0 {
		return []*SchemaDetail{d}
	}
	var leaves []*SchemaDetail
	for _, c := range d.Causes {
		leaves = append(leaves, c.Leaves()...)
	}
	return leaves
}

// ValidationError represents a value that violated a declared rule.
// It identifies the rule, the parameter, and the offending raw value, plus a
// structured schema detail when the violated rule was a schema check.
type ValidationError struct {
	// Operation is the operation being validated
	Operation string
	// Param is the parameter whose value failed
	Param string
	// Rule is the tag of the violated rule (e.g. "enum", "max_length")
	Rule string
	// Value is the offending raw value (may be nil for missing values)
	Value any
	// Message describes the failure
	Message string
	// Detail carries the structured schema violation for schema rules
	Detail *SchemaDetail
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ValidationError) Error() string {
	msg := "validation error"
	if e.Param != "" {
		msg += fmt.Sprintf(" for parameter %q", e.Param)
	}
	if e.Rule != "" {
		msg += " (rule " + e.Rule + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.String()
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DecodeError represents a body that could not be decoded as structured
// data. It carries the raw bytes and the decoder diagnostic so callers can
// log or echo the offending input.
type DecodeError struct {
	// Operation is the operation being validated
	Operation string
	// Raw holds the bytes that failed to decode
	Raw []byte
	// Cause is the decoder diagnostic
	Cause error
}

// Error returns a human-readable error message.
func (e *DecodeError) Error() string {
	msg := "decode error"
	if e.Operation != "" {
		msg += fmt.Sprintf(" for operation %q", e.Operation)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Raw) > 0 {
		msg += " (input: " + formatValue(string(e.Raw)) + ")"
	}
	return msg
}

// Unwrap returns the underlying decoder diagnostic.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// UnknownRuleError represents a rule tag the engine does not recognize.
// This is the one failure path that is a defect in the system itself rather
// than bad input, so it matches ErrCatalogDefect in addition to
// ErrUnknownRule.
type UnknownRuleError struct {
	// Operation is the operation whose catalog entry is defective
	Operation string
	// Param is the parameter whose rule list carries the unknown tag
	Param string
	// Kind is the unrecognized rule tag
	Kind string
}

// Error returns a human-readable error message.
func (e *UnknownRuleError) Error() string {
	msg := "unknown rule"
	if e.Kind != "" {
		msg += fmt.Sprintf(" %q", e.Kind)
	}
	if e.Operation != "" || e.Param != "" {
		msg += fmt.Sprintf(" in catalog entry (%s, %s)", e.Operation, e.Param)
	}
	return msg
}

// Unwrap returns nil as UnknownRuleError has no underlying cause.
func (e *UnknownRuleError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
// Matches both ErrUnknownRule and ErrCatalogDefect.
func (e *UnknownRuleError) Is(target error) bool {
	return target == ErrUnknownRule || target == ErrCatalogDefect
}

// UnknownOperationError represents an operation identifier that has no
// catalog entry. Matches ErrCatalogDefect in addition to ErrUnknownOperation.
type UnknownOperationError struct {
	// Operation is the unrecognized identifier
	Operation string
}

// Error returns a human-readable error message.
func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Operation)
}

// Unwrap returns nil as UnknownOperationError has no underlying cause.
func (e *UnknownOperationError) Unwrap() error {
	return nil
}

// Is reports whether target matches this error type.
// Matches both ErrUnknownOperation and ErrCatalogDefect.
func (e *UnknownOperationError) Is(target error) bool {
	return target == ErrUnknownOperation || target == ErrCatalogDefect
}

// SchemaLoadError represents a failure to read the schema document.
type SchemaLoadError struct {
	// Path is the document path that could not be read
	Path string
	// Cause is the underlying I/O error
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaLoadError) Error() string {
	msg := "schema load error"
	if e.Path != "" {
		msg += " for " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaLoadError) Is(target error) bool {
	return target == ErrSchemaLoad
}

// SchemaParseError represents a schema document or reference target that is
// not valid structured data.
type SchemaParseError struct {
	// Path is the document path, if the whole document failed
	Path string
	// Ref is the reference that failed to resolve or compile, if any
	Ref string
	// Cause is the underlying error
	Cause error
}

// Error returns a human-readable error message.
func (e *SchemaParseError) Error() string {
	msg := "schema parse error"
	if e.Path != "" {
		msg += " in " + e.Path
	}
	if e.Ref != "" {
		msg += fmt.Sprintf(" for reference %q", e.Ref)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SchemaParseError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *SchemaParseError) Is(target error) bool {
	return target == ErrSchemaParse
}

// ConfigError represents an invalid configuration or input.
// This includes invalid options, missing required inputs, and conflicting
// settings.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
