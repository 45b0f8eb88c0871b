// Package pathmatch resolves concrete request paths against the path
// templates a catalog's operations declare. It exists for the HTTP
// middleware and the CLI, which receive raw (method, path) pairs and must
// discover the operation ID before validation can start. The validation
// core never routes.
//
// Templates are the OpenAPI segment style, which is RFC 6570 level 1:
//
//	/pet/{petId}
//	/store/order/{orderId}/items
//
// Matching follows OpenAPI precedence: literal templates beat templated
// ones, and more specific templates beat less specific ones. A variable
// never spans a path segment and never matches an empty one.
package pathmatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	"github.com/opcheck-dev/opcheck/catalog"
)

// route is one operation's compiled path template.
type route struct {
	operationID string
	method      string
	template    string
	tmpl        *uritemplate.Template
	varnames    []string

	// specificity orders candidate routes: literal characters raise it,
	// variables lower it, so /pet/findByStatus outranks /pet/{petId}.
	specificity int
}

// Matcher resolves (method, path) pairs to operation IDs. Immutable after
// construction; safe for unsynchronized concurrent use.
type Matcher struct {
	routes []route
}

// New compiles the path templates of every operation in c that carries
// routing hints. Operations without a method or path are skipped; they
// remain reachable through PopulateRequestContext by explicit ID.
func New(c *catalog.Catalog) (*Matcher, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog must not be nil")
	}

	routes := make([]route, 0, len(c.Operations))
	for i := range c.Operations {
		op := &c.Operations[i]
		if op.Method == "" || op.Path == "" {
			continue
		}

		tmpl, err := uritemplate.New(op.Path)
		if err != nil {
			return nil, fmt.Errorf("operation %q: compiling path template %q: %w", op.ID, op.Path, err)
		}

		routes = append(routes, route{
			operationID: op.ID,
			method:      strings.ToUpper(op.Method),
			template:    op.Path,
			tmpl:        tmpl,
			varnames:    tmpl.Varnames(),
			specificity: specificityOf(op.Path),
		})
	}

	// Most specific first; length and lexical order break ties so resolution
	// is deterministic across process restarts.
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].specificity != routes[j].specificity {
			return routes[i].specificity > routes[j].specificity
		}
		if len(routes[i].template) != len(routes[j].template) {
			return len(routes[i].template) > len(routes[j].template)
		}
		if routes[i].template != routes[j].template {
			return routes[i].template < routes[j].template
		}
		return routes[i].operationID < routes[j].operationID
	})

	return &Matcher{routes: routes}, nil
}

// specificityOf scores a template: each literal non-slash character counts
// for it, each template expression counts against it.
func specificityOf(template string) int {
	score := 0
	depth := 0
	for _, c := range template {
		switch {
		case c == '{':
			if depth == 0 {
				score--
			}
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case depth == 0 && c != '/':
			score++
		}
	}
	return score
}

// Len reports how many routable operations the matcher compiled.
func (m *Matcher) Len() int {
	return len(m.routes)
}

// Resolve finds the operation covering the given request method and path.
// The path must already be decoded, as http.Request.URL.Path is. Bindings
// carry the matched template variables; the map is non-nil whenever ok is
// true. Method comparison is case-insensitive.
func (m *Matcher) Resolve(method, path string) (operationID string, bindings map[string]string, ok bool) {
	for i := range m.routes {
		rt := &m.routes[i]
		if !strings.EqualFold(rt.method, method) {
			continue
		}
		match := rt.tmpl.Match(path)
		if match == nil {
			continue
		}

		bindings = make(map[string]string, len(rt.varnames))
		empty := false
		for _, name := range rt.varnames {
			v := match.Get(name).String()
			if v == "" {
				// RFC 6570 lets an expression match nothing; a path segment
				// cannot be empty, so the route does not apply.
				empty = true
				break
			}
			bindings[name] = v
		}
		if empty {
			continue
		}
		return rt.operationID, bindings, true
	}
	return "", nil, false
}
