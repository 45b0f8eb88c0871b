// Package middleware gates inbound HTTP requests with a Validator and
// observes outbound responses against their declared contracts.
//
// Requests whose method and path resolve to a catalog operation are
// populated and validated before the wrapped handler runs; invalid ones
// are rejected with a JSON problem body and never reach it. Requests that
// resolve to no operation pass through untouched. Handlers read the
// validated parameters back with ParamsFromContext; the request body is
// restored before the handler runs.
//
// Responses are buffered up to a cap and checked after the handler
// returns. Contract violations are logged and counted, never altering the
// already-written response.
//
//	gate := middleware.Validate(v, middleware.WithLogger(logger))
//	http.ListenAndServe(":8080", gate(mux))
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opcheck-dev/opcheck"
	"github.com/opcheck-dev/opcheck/internal/pathmatch"
)

type paramsKey struct{}

type requestIDKey struct{}

// ParamsFromContext returns the validated parameter map the middleware
// stored for this request. ok is false when the request was not gated.
// The map is owned by the middleware and must not be retained past the
// handler's return.
func ParamsFromContext(ctx context.Context) (map[string]any, bool) {
	params, ok := ctx.Value(paramsKey{}).(map[string]any)
	return params, ok
}

// RequestIDFromContext returns the request ID the middleware honored or
// minted for this request.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// Validate returns middleware gating requests through v.
//
// Validate panics when an option is invalid, a routable operation's path
// template does not compile, or a collector cannot be registered. All
// three are deployment defects surfaced at startup, not request time.
func Validate(v *opcheck.Validator, opts ...Option) func(http.Handler) http.Handler {
	if v == nil {
		panic("middleware: validator must not be nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			panic(fmt.Sprintf("middleware: %v", err))
		}
	}
	matcher, err := pathmatch.New(v.Catalog())
	if err != nil {
		panic(fmt.Sprintf("middleware: %v", err))
	}
	m := newMetrics(cfg.registerer)
	cfg.logger.Debug("validation middleware ready", "routes", matcher.Len())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			opID, bindings, ok := matcher.Resolve(r.Method, r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			requestID := r.Header.Get(cfg.requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(cfg.requestIDHeader, requestID)

			log := cfg.logger.With("operation", opID, "request_id", requestID)

			ctx := opcheck.ContextWithPathBindings(r.Context(), bindings)
			ctx = context.WithValue(ctx, requestIDKey{}, requestID)

			start := time.Now()
			result, err := v.PopulateRequestContext(ctx, opID, r)
			elapsed := time.Since(start)
			if err != nil {
				m.recordRequest(opID, outcomeError, elapsed)
				log.Error("request validation failed", "error", err)
				writeProblem(w, problem{
					Title:     "request validation unavailable",
					Status:    http.StatusInternalServerError,
					Detail:    "the validation catalog does not match this deployment",
					Operation: opID,
					RequestID: requestID,
				})
				return
			}
			defer result.Release()

			if !result.Valid {
				m.recordRequest(opID, outcomeInvalid, elapsed)
				if len(result.Issues) > 0 {
					iss := result.Issues[0]
					log.Info("request rejected",
						"param", iss.Param,
						"source", iss.Source,
						"rule", iss.Rule,
						"message", iss.Message)
				}
				writeProblem(w, problem{
					Title:     "request validation failed",
					Status:    http.StatusBadRequest,
					Operation: opID,
					RequestID: requestID,
					Issues:    problemIssues(result.Issues),
				})
				return
			}

			m.recordRequest(opID, outcomeValid, elapsed)
			ctx = context.WithValue(ctx, paramsKey{}, result.Params)

			rec := newResponseRecorder(w, cfg.captureLimit)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if rec.hijacked {
				return
			}
			if rec.truncated {
				log.Debug("response body exceeded capture limit, contract not checked",
					"limit", cfg.captureLimit)
				return
			}

			respResult, err := v.ValidateResponse(opID, rec.status, rec.body.Bytes())
			if err != nil {
				log.Error("response validation failed", "error", err)
				return
			}
			defer respResult.Release()

			if !respResult.Valid {
				m.recordContractFailure(opID)
				log.Warn("response contract violated",
					"status", rec.status,
					"violations", contractViolations(respResult))
			}
		})
	}
}

// contractViolations flattens a failed response result into log-friendly
// strings, element outcomes included.
func contractViolations(result *opcheck.ResponseResult) []string {
	var msgs []string
	for _, iss := range result.Issues {
		msgs = append(msgs, iss.String())
	}
	for _, el := range result.Elements {
		if el.Valid {
			continue
		}
		for _, iss := range el.Issues {
			msgs = append(msgs, fmt.Sprintf("[%d] %s", el.Index, iss.String()))
		}
	}
	return msgs
}
