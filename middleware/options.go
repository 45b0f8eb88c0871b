package middleware

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opcheck-dev/opcheck"
)

// DefaultRequestIDHeader is the header consulted for an inbound request ID
// and stamped on every gated response.
const DefaultRequestIDHeader = "X-Request-Id"

// DefaultCaptureLimit caps how much of a response body is buffered for
// contract validation. Larger responses are passed through unchecked.
const DefaultCaptureLimit int64 = 1 << 20

// Option configures the middleware returned by Validate.
type Option func(*config) error

type config struct {
	logger          opcheck.Logger
	registerer      prometheus.Registerer
	requestIDHeader string
	captureLimit    int64
}

func defaultConfig() *config {
	return &config{
		logger:          opcheck.NopLogger{},
		registerer:      prometheus.DefaultRegisterer,
		requestIDHeader: DefaultRequestIDHeader,
		captureLimit:    DefaultCaptureLimit,
	}
}

// WithLogger sets the logger for rejection and contract-violation records.
// Records carry the operation ID and request ID as attributes.
func WithLogger(logger opcheck.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			return fmt.Errorf("logger must not be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithRegisterer sets the prometheus registerer the middleware collectors
// are registered on. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) error {
		if reg == nil {
			return fmt.Errorf("registerer must not be nil")
		}
		c.registerer = reg
		return nil
	}
}

// WithRequestIDHeader renames the request ID header read from inbound
// requests and stamped on gated responses.
func WithRequestIDHeader(name string) Option {
	return func(c *config) error {
		if name == "" {
			return fmt.Errorf("request ID header must not be empty")
		}
		c.requestIDHeader = name
		return nil
	}
}

// WithCaptureLimit caps how many response body bytes are buffered for
// contract validation. Responses that exceed the cap skip validation
// rather than judging a truncated body.
func WithCaptureLimit(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("capture limit must be positive, got %d", n)
		}
		c.captureLimit = n
		return nil
	}
}
