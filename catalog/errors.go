package catalog

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/opcheck-dev/opcheck/operrors"
)

// ParseError reports a catalog document that could not be decoded.
type ParseError struct {
	// Path is the file path, empty for byte-parsed catalogs.
	Path string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("catalog: failed to parse %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("catalog: failed to parse: %v", e.Cause)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Is reports a catalog defect: a document that does not decode can never
// be served.
func (e *ParseError) Is(target error) bool {
	return target == operrors.ErrCatalogDefect
}

// VetError aggregates every precondition Vet found violated, keyed by
// operation ID (or positional key for operations without one).
type VetError struct {
	Errs validation.Errors
}

// Error implements the error interface.
func (e *VetError) Error() string {
	return "catalog: vet failed: " + e.Errs.Error()
}

// Unwrap returns the aggregated errors for errors.As support.
func (e *VetError) Unwrap() error {
	return e.Errs
}

// Is marks vet failures as catalog defects.
func (e *VetError) Is(target error) bool {
	return target == operrors.ErrCatalogDefect
}

// Defect is one flattened vet finding, addressed by a dotted field path
// such as "getPetById.params.0.rules".
type Defect struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Defects flattens the aggregate into individual findings, sorted by field
// path. Reporting surfaces render these instead of the nested error text.
func (e *VetError) Defects() []Defect {
	var out []Defect
	flattenDefects("", e.Errs, &out)
	return out
}

func flattenDefects(prefix string, err error, out *[]Defect) {
	errs, ok := err.(validation.Errors)
	if !ok {
		*out = append(*out, Defect{Field: prefix, Message: err.Error()})
		return
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field := k
		if prefix != "" {
			field = prefix + "." + k
		}
		flattenDefects(field, errs[k], out)
	}
}
