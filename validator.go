package opcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/operrors"
	"github.com/opcheck-dev/opcheck/schemastore"
)

// Validator populates requests and validates responses against a vetted
// rule catalog. It is immutable after construction and safe for concurrent
// use; one Validator is shared across all requests.
//
// Create a Validator with New:
//
//	table, err := catalog.LoadFile("catalog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := schemastore.Load("schemas/openapi.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	v, err := opcheck.New(table, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := v.PopulateRequest("placeOrder", req)
//	if err != nil {
//	    // Catalog defect or transport failure: abort loudly.
//	}
//	if !result.Valid {
//	    // Reject the request; result.Issues[0] names the violation.
//	}
type Validator struct {
	catalog *catalog.Catalog
	store   *schemastore.Store
	logger  Logger

	strict       bool
	maxBodySize  int64
	bodyRestore  bool
	pathBindings func(r *http.Request, name string) string
}

// New creates a Validator over a catalog and an optional schema store.
//
// The catalog is vetted before use and every schema reference it declares
// is compiled eagerly, so defects surface at startup instead of on the
// first unlucky request. The store may be nil only when the catalog
// declares no schema rules or contracts.
func New(c *catalog.Catalog, store *schemastore.Store, opts ...Option) (*Validator, error) {
	if c == nil {
		return nil, fmt.Errorf("opcheck: catalog cannot be nil")
	}
	if err := c.Vet(); err != nil {
		return nil, err
	}

	refs := c.SchemaRefs()
	if len(refs) > 0 {
		if store == nil {
			return nil, fmt.Errorf("opcheck: catalog references %d schemas but no schema store was provided", len(refs))
		}
		if err := store.PrecompileRefs(refs...); err != nil {
			return nil, err
		}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	v := &Validator{
		catalog:      c,
		store:        store,
		logger:       cfg.logger,
		strict:       cfg.strictMode,
		maxBodySize:  cfg.maxBodySize,
		bodyRestore:  cfg.bodyRestore,
		pathBindings: cfg.pathBindings,
	}
	v.logger.Debug("validator ready",
		"operations", len(c.OperationIDs()),
		"schema_refs", len(refs))
	return v, nil
}

// Catalog returns the vetted catalog the Validator was built over.
func (v *Validator) Catalog() *catalog.Catalog {
	return v.catalog
}

// PopulateRequest extracts and validates every parameter the operation
// declares, in catalog order, failing fast on the first violation.
//
// The returned result carries the final coerced parameter values on
// success and exactly one issue on failure. The error return is reserved
// for catalog defects (unknown operation, unknown rule tag, broken schema
// reference) and transport failures while reading the body; those must not
// be conflated with invalid client input.
func (v *Validator) PopulateRequest(operationID string, req *http.Request) (*RequestResult, error) {
	return v.PopulateRequestContext(req.Context(), operationID, req)
}

// PopulateRequestContext is PopulateRequest honoring ctx cancellation
// between parameters. Bindings attached to ctx via ContextWithPathBindings
// override the configured path lookup.
func (v *Validator) PopulateRequestContext(ctx context.Context, operationID string, req *http.Request) (*RequestResult, error) {
	op, ok := v.catalog.Operation(operationID)
	if !ok {
		return nil, &operrors.UnknownOperationError{Operation: operationID}
	}

	st := v.newRequestState(ctx, req)
	result := getRequestResult()
	result.Operation = operationID

	for i := range op.Params {
		if err := ctx.Err(); err != nil {
			result.Release()
			return nil, err
		}
		p := &op.Params[i]

		value, present, err := v.extract(st, op.ID, p)
		if err != nil {
			var derr *operrors.DecodeError
			if errors.As(err, &derr) {
				result.fail(decodeIssue(p, derr))
				v.logger.Debug("request rejected",
					"operation", op.ID, "param", p.Name, "reason", "decode")
				return result, nil
			}
			result.Release()
			return nil, err
		}

		final, err := v.applyRules(op.ID, p, value, present)
		if err != nil {
			var verr *operrors.ValidationError
			if errors.As(err, &verr) {
				result.fail(validationIssue(p, verr))
				v.logger.Debug("request rejected",
					"operation", op.ID, "param", p.Name, "rule", verr.Rule)
				return result, nil
			}
			result.Release()
			return nil, err
		}

		if present {
			result.Params[p.Name] = final
		}
	}

	if v.strict {
		if iss, found := undeclaredQuery(st, op); found {
			result.fail(iss)
			v.logger.Debug("request rejected",
				"operation", op.ID, "param", iss.Param, "reason", "undeclared")
			return result, nil
		}
	}
	return result, nil
}

// undeclaredQuery scans the parsed query for keys the operation does not
// declare. Keys are visited in sorted order so the reported offender is
// deterministic.
func undeclaredQuery(st *requestState, op *catalog.Operation) (Issue, bool) {
	declared := make(map[string]bool, len(op.Params))
	for i := range op.Params {
		if op.Params[i].Source == catalog.SourceQuery {
			declared[op.Params[i].Name] = true
		}
	}

	values := st.req.URL.Query()
	keys := make([]string, 0, len(values))
	for key := range values {
		if !declared[key] {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return Issue{}, false
	}
	sort.Strings(keys)
	return Issue{
		Param:    keys[0],
		Source:   string(catalog.SourceQuery),
		Rule:     "undeclared",
		Message:  fmt.Sprintf("query parameter %q is not declared", keys[0]),
		Severity: SeverityError,
	}, true
}

// validationIssue converts a rule violation into a result issue.
func validationIssue(p *catalog.Param, verr *operrors.ValidationError) Issue {
	iss := Issue{
		Param:    verr.Param,
		Source:   string(p.Source),
		Rule:     verr.Rule,
		Message:  verr.Message,
		Severity: SeverityError,
		Value:    verr.Value,
	}
	if verr.Detail != nil {
		if leaves := verr.Detail.Leaves(); len(leaves) > 0 {
			iss.Message = fmt.Sprintf("%s: %s", verr.Message, leaves[0].Message)
			iss.Path = leaves[0].InstancePath
		}
	}
	return iss
}

// decodeIssue converts a body decode failure into a result issue. Decode
// failures carry no rule tag.
func decodeIssue(p *catalog.Param, derr *operrors.DecodeError) Issue {
	return Issue{
		Param:    p.Name,
		Source:   string(p.Source),
		Message:  fmt.Sprintf("body could not be decoded: %v", derr.Cause),
		Severity: SeverityError,
	}
}
