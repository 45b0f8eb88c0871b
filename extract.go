package opcheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/segmentio/encoding/json"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/internal/valuesource"
	"github.com/opcheck-dev/opcheck/operrors"
)

type bindingsKey struct{}

// ContextWithPathBindings attaches pre-captured path bindings to ctx.
// Bindings attached this way take precedence over the Validator's configured
// path lookup; the middleware uses this to hand over the captures from its
// own template matching.
func ContextWithPathBindings(ctx context.Context, bindings map[string]string) context.Context {
	if len(bindings) == 0 {
		return ctx
	}
	return context.WithValue(ctx, bindingsKey{}, bindings)
}

// pathBindingsFromContext returns the bindings attached to ctx, if any.
func pathBindingsFromContext(ctx context.Context) map[string]string {
	b, _ := ctx.Value(bindingsKey{}).(map[string]string)
	return b
}

// requestState caches per-request extraction work so every source is
// touched at most once per populate pass.
type requestState struct {
	req *http.Request

	queryParsed bool
	query       valuesource.Query

	path valuesource.Getter

	// Body state. The body is read and decoded once; every later
	// body-sourced parameter in the same pass sees the cached value.
	bodyRead    bool
	bodyRaw     []byte
	bodyVal     any
	bodyPresent bool
	bodyErr     error
}

// newRequestState builds the per-request extraction state, resolving the
// path binding source: context-attached bindings win over the configured
// lookup.
func (v *Validator) newRequestState(ctx context.Context, req *http.Request) *requestState {
	st := &requestState{req: req}
	if b := pathBindingsFromContext(ctx); b != nil {
		st.path = valuesource.PathMap(b)
	} else {
		st.path = valuesource.PathFunc(func(name string) string {
			return v.pathBindings(req, name)
		})
	}
	return st
}

// extract returns the raw value for one declared parameter and whether it
// was present on the request. The error return carries decode failures
// (*operrors.DecodeError) and fatal extraction problems; plain absence is
// (nil, false, nil).
func (v *Validator) extract(st *requestState, opID string, p *catalog.Param) (any, bool, error) {
	switch p.Source {
	case catalog.SourceQuery:
		if !st.queryParsed {
			st.query = valuesource.Query(st.req.URL.Query())
			st.queryParsed = true
		}
		return presentString(st.query.Value(p.Name))

	case catalog.SourceHeader:
		return presentString(valuesource.Header(st.req.Header).Value(p.Name))

	case catalog.SourcePath:
		return presentString(st.path.Value(p.Name))

	case catalog.SourceBody:
		if !st.bodyRead {
			st.bodyRead = true
			st.bodyRaw, st.bodyVal, st.bodyPresent, st.bodyErr = v.readBody(st.req, opID)
		}
		if st.bodyErr != nil {
			return nil, false, st.bodyErr
		}
		return st.bodyVal, st.bodyPresent, nil

	default:
		return nil, false, fmt.Errorf("opcheck: parameter %q declares unknown source %q: %w",
			p.Name, p.Source, operrors.ErrCatalogDefect)
	}
}

// presentString widens a Getter lookup to the extractor's return shape.
func presentString(val string, ok bool) (any, bool, error) {
	if !ok {
		return nil, false, nil
	}
	return val, true, nil
}

// readBody performs the single full body read for a populate pass.
//
// An empty or missing body is the explicit absent sentinel, not an error.
// Decode failures return a *operrors.DecodeError carrying the raw bytes.
// With body restore enabled the buffered bytes are reinstated on req.Body
// so downstream handlers can re-read them, including when the decode fails.
func (v *Validator) readBody(req *http.Request, opID string) (raw []byte, val any, present bool, err error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil, false, nil
	}

	raw, readErr := io.ReadAll(io.LimitReader(req.Body, v.maxBodySize+1))
	if readErr != nil {
		// Transport failure mid-read: fatal, nothing to restore.
		return nil, nil, false, fmt.Errorf("opcheck: reading request body: %w", readErr)
	}
	if int64(len(raw)) > v.maxBodySize {
		return nil, nil, false, &operrors.DecodeError{
			Operation: opID,
			Cause:     fmt.Errorf("request body exceeds %d bytes", v.maxBodySize),
		}
	}

	if v.bodyRestore {
		req.Body = io.NopCloser(bytes.NewReader(raw))
	}

	if len(raw) == 0 {
		return raw, nil, false, nil
	}

	var decoded any
	if derr := json.Unmarshal(raw, &decoded); derr != nil {
		return raw, nil, false, &operrors.DecodeError{
			Operation: opID,
			Raw:       raw,
			Cause:     derr,
		}
	}
	return raw, decoded, true, nil
}
