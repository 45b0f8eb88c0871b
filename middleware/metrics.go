package middleware

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for opcheck_requests_validated_total.
const (
	outcomeValid   = "valid"
	outcomeInvalid = "invalid"
	outcomeError   = "error"
)

// metrics holds the middleware's prometheus collectors.
type metrics struct {
	requestsValidated *prometheus.CounterVec
	validationSeconds prometheus.Histogram
	contractFailures  *prometheus.CounterVec
}

// newMetrics registers the middleware collectors on reg. A collector whose
// descriptor is already registered is reused, so several middlewares in one
// process report through a single set.
func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		requestsValidated: registerOrReuse(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opcheck_requests_validated_total",
				Help: "Requests gated by the validation middleware, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		)),
		validationSeconds: registerOrReuse(reg, prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "opcheck_request_validation_seconds",
				Help: "Time spent populating and validating request parameters",
				// An in-memory pass, far quicker than the default HTTP buckets.
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		)),
		contractFailures: registerOrReuse(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opcheck_response_contract_failures_total",
				Help: "Responses that violated their declared contract, by operation",
			},
			[]string{"operation"},
		)),
	}
}

// registerOrReuse registers c on reg, handing back the already-registered
// collector when the descriptor collides. Any other registration failure is
// a programming error and panics, matching MustRegister.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

// recordRequest records one gated request.
func (m *metrics) recordRequest(operation, outcome string, elapsed time.Duration) {
	m.requestsValidated.WithLabelValues(operation, outcome).Inc()
	m.validationSeconds.Observe(elapsed.Seconds())
}

// recordContractFailure records one response that broke its contract.
func (m *metrics) recordContractFailure(operation string) {
	m.contractFailures.WithLabelValues(operation).Inc()
}
