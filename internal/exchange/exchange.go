// Package exchange replays captured HTTP exchanges through a validator.
// A capture is a small JSON document describing one request and, when
// recorded, the response the server produced. The CLI check command and
// the MCP check_request tool both feed captures through Run.
package exchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/opcheck-dev/opcheck"
	"github.com/opcheck-dev/opcheck/internal/pathmatch"
)

// Exchange is one captured request, optionally paired with the response
// the server produced.
type Exchange struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`

	Response *CapturedResponse `json:"response,omitempty"`
}

// CapturedResponse is the response half of an exchange.
type CapturedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// Parse decodes and sanity-checks a capture document.
func Parse(data []byte) (*Exchange, error) {
	var e Exchange
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("exchange: decoding capture: %w", err)
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Load reads a capture document from path.
func Load(path string) (*Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exchange: reading capture: %w", err)
	}
	e, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return e, nil
}

func (e *Exchange) validate() error {
	if e.Method == "" {
		return fmt.Errorf("exchange: method is required")
	}
	if e.Path == "" {
		return fmt.Errorf("exchange: path is required")
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("exchange: path %q must be absolute", e.Path)
	}
	if strings.Contains(e.Path, "?") {
		return fmt.Errorf("exchange: path %q carries a query string, declare it under query instead", e.Path)
	}
	if e.Response != nil && (e.Response.Status < 100 || e.Response.Status > 599) {
		return fmt.Errorf("exchange: response status %d out of range", e.Response.Status)
	}
	return nil
}

// httpRequest materializes the capture as a request the extractor can read.
func (e *Exchange) httpRequest() *http.Request {
	q := url.Values{}
	for k, v := range e.Query {
		q.Set(k, v)
	}
	req := &http.Request{
		Method: e.Method,
		URL:    &url.URL{Path: e.Path, RawQuery: q.Encode()},
		Header: make(http.Header, len(e.Headers)),
	}
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}
	if len(e.Body) > 0 {
		req.Body = io.NopCloser(bytes.NewReader(e.Body))
	}
	return req
}

// Outcome bundles what replaying one exchange produced. Results are pooled;
// call Release when done rendering and do not read the outcome after.
type Outcome struct {
	Resolved    bool
	OperationID string

	// Request is nil when the exchange resolved to no operation.
	Request *opcheck.RequestResult

	// Response is nil unless the capture recorded a response.
	Response *opcheck.ResponseResult
}

// Release returns the pooled results.
func (o *Outcome) Release() {
	if o == nil {
		return
	}
	o.Request.Release()
	o.Response.Release()
}

// Run resolves the exchange against the matcher and replays it through v.
// An unresolved exchange reports Resolved=false with nothing validated. The
// response half is validated whenever it was captured, even when the
// request half failed; the two verdicts are independent.
func Run(ctx context.Context, v *opcheck.Validator, m *pathmatch.Matcher, e *Exchange) (*Outcome, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	opID, bindings, ok := m.Resolve(e.Method, e.Path)
	if !ok {
		return &Outcome{}, nil
	}

	ctx = opcheck.ContextWithPathBindings(ctx, bindings)
	reqResult, err := v.PopulateRequestContext(ctx, opID, e.httpRequest())
	if err != nil {
		return nil, err
	}

	out := &Outcome{Resolved: true, OperationID: opID, Request: reqResult}
	if e.Response != nil {
		respResult, err := v.ValidateResponse(opID, e.Response.Status, e.Response.Body)
		if err != nil {
			out.Release()
			return nil, err
		}
		out.Response = respResult
	}
	return out, nil
}
