package opcheck

import (
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/operrors"
)

// ValidateResponse checks a decided response body against the operation's
// declared contract for the status code.
//
// Contract selection follows exact status, then class pattern ("2XX"), then
// the catch-all; a status no selector covers passes unconditionally.
// Violations land in the result at warning severity for the caller to
// observe; the response has already been decided and is never altered. The
// error return carries catalog defects only (unknown operation, broken
// schema reference).
func (v *Validator) ValidateResponse(operationID string, status int, body []byte) (*ResponseResult, error) {
	op, ok := v.catalog.Operation(operationID)
	if !ok {
		return nil, &operrors.UnknownOperationError{Operation: operationID}
	}

	result := getResponseResult()
	result.Operation = operationID
	result.Status = status

	contract, ok := op.ContractFor(status)
	if !ok {
		return result, nil
	}
	result.Matched = true

	switch contract.Shape {
	case catalog.ShapeNone:
		return result, nil

	case catalog.ShapeSingle:
		if err := v.validateSingle(contract, body, result); err != nil {
			result.Release()
			return nil, err
		}
		return result, nil

	case catalog.ShapeList:
		if err := v.validateList(contract, body, result); err != nil {
			result.Release()
			return nil, err
		}
		return result, nil

	default:
		result.Release()
		return nil, fmt.Errorf("opcheck: contract for status %s declares unknown shape %q: %w",
			contract.Status, contract.Shape, operrors.ErrCatalogDefect)
	}
}

// validateSingle decodes the body and validates it once against the
// contract's component schema.
func (v *Validator) validateSingle(contract *catalog.ResponseContract, body []byte, result *ResponseResult) error {
	val, ok, err := v.decodeResponseBody(contract, body, result)
	if err != nil || !ok {
		return err
	}

	detail, err := v.store.ValidateRef(catalog.ComponentRef(contract.Schema), val)
	if err != nil {
		return err
	}
	if detail != nil {
		result.addIssue(schemaIssue(contract.Schema, detail))
	}
	return nil
}

// validateList requires the body to decode to a JSON array and validates
// each element independently, recording the ordered per-element outcomes.
func (v *Validator) validateList(contract *catalog.ResponseContract, body []byte, result *ResponseResult) error {
	val, ok, err := v.decodeResponseBody(contract, body, result)
	if err != nil || !ok {
		return err
	}

	elems, ok := val.([]any)
	if !ok {
		result.addIssue(Issue{
			Rule:     "schema",
			Message:  fmt.Sprintf("contract for status %s promises a list of %q but the body is not an array", contract.Status, contract.Schema),
			Severity: SeverityWarning,
		})
		return nil
	}

	ref := catalog.ComponentRef(contract.Schema)
	for i, elem := range elems {
		detail, err := v.store.ValidateRef(ref, elem)
		if err != nil {
			return err
		}
		outcome := ElementOutcome{Index: i, Valid: detail == nil}
		if detail != nil {
			outcome.Issues = append(outcome.Issues, schemaIssue(contract.Schema, detail))
		}
		result.addElement(outcome)
	}
	return nil
}

// decodeResponseBody decodes the body for a single or list contract. An
// empty body is a contract violation here: the contract promised one.
// Returns ok=false when validation cannot proceed; the issue is already on
// the result.
func (v *Validator) decodeResponseBody(contract *catalog.ResponseContract, body []byte, result *ResponseResult) (any, bool, error) {
	if len(body) == 0 {
		result.addIssue(Issue{
			Message: fmt.Sprintf("contract for status %s promises a %s %q body but the body is empty",
				contract.Status, contract.Shape, contract.Schema),
			Severity: SeverityWarning,
		})
		return nil, false, nil
	}

	var val any
	if err := json.Unmarshal(body, &val); err != nil {
		result.addIssue(Issue{
			Message:  fmt.Sprintf("response body could not be decoded: %v", err),
			Severity: SeverityWarning,
		})
		return nil, false, nil
	}
	return val, true, nil
}

// schemaIssue converts a structural schema violation into a response issue.
func schemaIssue(schemaName string, detail *operrors.SchemaDetail) Issue {
	iss := Issue{
		Rule:     "schema",
		Message:  fmt.Sprintf("body does not conform to schema %q", schemaName),
		Severity: SeverityWarning,
	}
	if leaves := detail.Leaves(); len(leaves) > 0 {
		iss.Message = fmt.Sprintf("%s: %s", iss.Message, leaves[0].Message)
		iss.Path = leaves[0].InstancePath
	}
	return iss
}
