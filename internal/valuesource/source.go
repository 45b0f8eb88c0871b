// Package valuesource provides per-source raw value lookups for request
// parameters. Each getter keeps "present but empty" distinct from "absent",
// which the required rule depends on.
package valuesource

import (
	"net/http"
	"net/textproto"
	"net/url"
)

// Getter looks up a named raw value from one request source.
type Getter interface {
	// Value returns the raw value for name and whether it was present.
	Value(name string) (string, bool)
}

// Query reads values from parsed query parameters.
type Query url.Values

// Value returns the first query value for name.
func (q Query) Value(name string) (string, bool) {
	vs, ok := url.Values(q)[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Header reads values from request headers. Lookups are case-insensitive:
// the parameter name is canonicalized the same way net/http canonicalizes
// header keys on read.
type Header http.Header

// Value returns the first header value for name.
func (h Header) Value(name string) (string, bool) {
	vs, ok := http.Header(h)[textproto.CanonicalMIMEHeaderKey(name)]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// PathMap reads values from pre-captured path bindings.
type PathMap map[string]string

// Value returns the binding for name.
func (p PathMap) Value(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// PathFunc adapts a router's binding lookup (such as http.Request.PathValue)
// to a Getter. An empty string from the lookup is treated as absent, which
// matches routers whose patterns only bind non-empty segments.
type PathFunc func(name string) string

// Value returns the binding for name.
func (f PathFunc) Value(name string) (string, bool) {
	v := f(name)
	return v, v != ""
}
