// Package catalog holds the declarative rule model: which parameters each
// operation declares, where each is read from, the ordered rules applied
// to it, and the response contracts the operation promises.
//
// A catalog is pure data. It can be loaded from YAML, derived from an
// OpenAPI 3 document, or linked in as a generated Go table; once built it
// is immutable and shared freely across goroutines.
//
// # Catalog Documents
//
// The YAML form declares operations, params, and response contracts:
//
//	operations:
//	  - id: getPetById
//	    method: GET
//	    path: /pet/{petId}
//	    params:
//	      - name: petId
//	        in: path
//	        rules:
//	          - required
//	          - type: integer
//	          - min: 1
//	    responses:
//	      - status: 200
//	        shape: single
//	        schema: Pet
//	      - status: default
//	        shape: none
//
// A rule is either a bare tag (required, not_required, schema) or a
// single-key mapping carrying the rule's payload. Rule order is
// evaluation order: a type rule placed before a bound rule means the
// bound compares the coerced value.
//
// # Vetting
//
// Vet checks everything the engine assumes about catalog data: known
// sources, known rule kinds, payloads present, patterns that compile,
// and no contradictory required pairs. Run it at startup; a catalog that
// passes cannot take the process down later.
//
//	c, err := catalog.LoadFile("catalog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Vet(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Derivation
//
// Derive builds a catalog from an OpenAPI 3 document, and EmitGo renders
// any catalog as a generated Go table for linking into a binary:
//
//	doc, _ := openapi3.NewLoader().LoadFromFile("openapi.yaml")
//	c, err := catalog.Derive(doc)
//	...
//	src, err := catalog.EmitGo(c, "petstore")
package catalog
