// Package opcheck validates HTTP requests and responses against a declared
// rule catalog backed by JSON Schema component definitions.
//
// opcheck sits between the transport and the handler: before a handler runs,
// every parameter an operation declares is extracted from its source (query
// string, header, path binding, or request body), folded through its ordered
// rule list, and coerced to its final typed value; after the handler has
// decided a response, the body can be checked against the operation's
// declared response contract. Requests are gated, responses are observed.
//
// # Overview
//
// The module consists of the core package plus four supporting packages:
//
//   - opcheck: the Validator — request population and response validation
//   - catalog: the rule catalog model, its YAML codec, vetting, OpenAPI
//     derivation, and Go code generation
//   - schemastore: the compiled JSON Schema document and reference resolution
//   - operrors: structured error types shared by every package
//   - middleware: net/http middleware that wires the Validator into a server
//
// # Installation
//
// Install the library using go get:
//
//	go get github.com/opcheck-dev/opcheck
//
// # Quick Start
//
// Load a catalog and a schema document, build a Validator, and populate a
// request:
//
//	table, err := catalog.LoadFile("catalog.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	store, err := schemastore.Load("schemas/openapi.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//	v, err := opcheck.New(table, store)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := v.PopulateRequest("getPetById", req)
//	if err != nil {
//		log.Fatal(err) // catalog defect, not client input
//	}
//	defer result.Release()
//	if !result.Valid {
//		// Reject: result.Issues[0] names the parameter and rule.
//	}
//	petID := result.Params["petId"].(int64)
//
// Validate a decided response against its contract:
//
//	outcome, err := v.ValidateResponse("getPetById", 200, body)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer outcome.Release()
//	if !outcome.Valid {
//		// Observe: log the contract violation, never alter the response.
//	}
//
// Or let the middleware do both:
//
//	handler := middleware.Validate(v)(mux)
//
// # Rule Catalogs
//
// A catalog declares, per operation, the parameters to validate and the
// response contracts to observe. Catalogs are declarative data with three
// interchangeable sources: a YAML document loaded at startup
// (catalog.LoadFile), a derivation from an OpenAPI 3 document
// (catalog.Derive), or a generated Go table linked into the binary
// (catalog.EmitGo). The rule vocabulary is closed: required, not_required,
// type, enum, min, max, exclusive_min, exclusive_max, min_length,
// max_length, pattern, and schema. An unknown tag in a catalog is a defect,
// reported by Vet at startup and by the engine as an error matching
// operrors.ErrCatalogDefect if it survives to runtime.
//
// # Population Semantics
//
// Parameters are processed in catalog order and population fails fast: the
// first violation ends the pass, and no later parameter is extracted. Rules
// fold left over the raw value; type rules coerce ("42" becomes int64(42),
// "TRUE" becomes true), comparison rules pass the value through, and the
// schema rule delegates to the schema store using the parameter's name as
// the component reference. The request body is read at most once per pass,
// decoded once, and shared by every body-sourced parameter; by default the
// buffered bytes are reinstated on req.Body for downstream handlers.
//
// # Errors
//
// Invalid input and broken deployments are kept strictly apart. Rule
// violations and undecodable bodies land in results as structured issues
// for the caller to map onto client responses. Catalog defects — an
// operation the catalog does not know, a rule tag the engine does not
// recognize, a schema reference that does not resolve — come back as error
// returns matching operrors.ErrCatalogDefect and should fail loudly.
package opcheck
