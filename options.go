package opcheck

import (
	"fmt"
	"net/http"
)

// DefaultMaxBodySize caps how many bytes of a request body are read when no
// explicit limit is configured.
const DefaultMaxBodySize int64 = 10 << 20 // 10 MiB

// Option is a functional option for configuring a Validator.
type Option func(*config) error

// config holds the configuration for a Validator.
type config struct {
	logger Logger

	// Validation behavior
	strictMode bool

	// Resource limits
	maxBodySize int64

	// Body handling
	bodyRestore bool

	// Path binding lookup
	pathBindings func(r *http.Request, name string) string
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		logger:      NopLogger{},
		maxBodySize: DefaultMaxBodySize,
		bodyRestore: true,
		pathBindings: func(r *http.Request, name string) string {
			return r.PathValue(name)
		},
	}
}

// WithLogger sets the logger validation outcomes are reported through.
// Default is NopLogger.
func WithLogger(l Logger) Option {
	return func(c *config) error {
		if l == nil {
			return fmt.Errorf("opcheck: logger cannot be nil")
		}
		c.logger = l
		return nil
	}
}

// WithStrictMode enables stricter validation: requests carrying query
// parameters the operation does not declare are rejected.
//
// Default is false.
func WithStrictMode(strict bool) Option {
	return func(c *config) error {
		c.strictMode = strict
		return nil
	}
}

// WithMaxBodySize sets the maximum request body size in bytes. Bodies
// exceeding the limit produce a decode failure in the result.
// Default: 10 MiB.
func WithMaxBodySize(n int64) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("opcheck: maxBodySize must be positive")
		}
		c.maxBodySize = n
		return nil
	}
}

// WithBodyRestore controls whether the buffered body bytes are reinstated on
// req.Body after extraction so downstream handlers can re-read them.
// Default is true.
func WithBodyRestore(restore bool) Option {
	return func(c *config) error {
		c.bodyRestore = restore
		return nil
	}
}

// WithPathBindings replaces the path binding lookup used for path-sourced
// parameters. The default reads http.Request.PathValue, which covers the
// net/http mux; routers that keep bindings elsewhere supply their own
// lookup here.
//
// Bindings attached to the request context via ContextWithPathBindings take
// precedence over the configured lookup.
func WithPathBindings(fn func(r *http.Request, name string) string) Option {
	return func(c *config) error {
		if fn == nil {
			return fmt.Errorf("opcheck: path binding lookup cannot be nil")
		}
		c.pathBindings = fn
		return nil
	}
}
