// Package schemastore loads a JSON-schema document once and exposes it for
// structural validation calls against #/components/schemas references.
//
// A Store is immutable after Load and safe for unsynchronized concurrent
// use. Reference targets are compiled on first use and cached for the life
// of the store; PrecompileRefs can warm the cache at startup so a defective
// reference fails deployment instead of a request.
package schemastore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/opcheck-dev/opcheck/internal/issues"
	"github.com/opcheck-dev/opcheck/operrors"
)

// docURL is the resource URL the schema document is registered under.
// References are resolved against it, e.g. "opcheck-schemas.json#/components/schemas/Pet".
const docURL = "opcheck-schemas.json"

// DefaultPath is the conventional schema document location when the caller
// does not supply one.
const DefaultPath = "schemas/openapi.json"

// Store holds the loaded schema document and its compiled reference targets.
type Store struct {
	path  string
	doc   any
	draft *jsonschema.Draft

	// compiler is guarded by mu; the jsonschema compiler is not safe for
	// concurrent Compile calls. Compiled schemas land in compiled and are
	// read lock-free afterwards.
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	compiled sync.Map // ref string -> *jsonschema.Schema

	printer *message.Printer
}

// Load reads the schema document from path and prepares it for reference
// validation. The document is read exactly once; the returned Store never
// touches the filesystem again.
//
// Returns an error matching operrors.ErrSchemaLoad if the document cannot
// be read, or operrors.ErrSchemaParse if it is not valid structured data.
func Load(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &operrors.SchemaLoadError{Path: path, Cause: err}
	}
	s, err := LoadBytes(data, opts...)
	if err != nil {
		var pe *operrors.SchemaParseError
		if errors.As(err, &pe) {
			pe.Path = path
			return nil, pe
		}
		return nil, err
	}
	s.path = path
	return s, nil
}

// LoadBytes prepares a schema document from raw bytes, for embedded
// documents and tests.
func LoadBytes(data []byte, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, &operrors.SchemaParseError{Cause: err}
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(cfg.draft)
	if cfg.assertFormat {
		compiler.AssertFormat()
	}
	if cfg.assertContent {
		compiler.AssertContent()
	}
	if err := compiler.AddResource(docURL, doc); err != nil {
		return nil, &operrors.SchemaParseError{Cause: err}
	}

	return &Store{
		doc:      doc,
		draft:    cfg.draft,
		compiler: compiler,
		printer:  message.NewPrinter(language.English),
	}, nil
}

// Document returns the decoded schema document.
func (s *Store) Document() any {
	return s.doc
}

// Path returns the file path the document was loaded from, or "" for
// byte-loaded stores.
func (s *Store) Path() string {
	return s.path
}

// ValidateRef validates v against the schema at ref (a document fragment
// such as "#/components/schemas/Pet").
//
// Three outcomes:
//   - (nil, nil): v conforms to the referenced schema.
//   - (detail, nil): v does not conform; detail describes the violations.
//   - (nil, err): the reference itself is missing or malformed, matching
//     operrors.ErrSchemaParse. This is a document defect, not bad data.
func (s *Store) ValidateRef(ref string, v any) (*operrors.SchemaDetail, error) {
	schema, err := s.schemaFor(ref)
	if err != nil {
		return nil, err
	}

	err = schema.Validate(v)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return s.toDetail(verr), nil
	}
	return nil, &operrors.SchemaParseError{Ref: ref, Cause: err}
}

// Has reports whether ref resolves to a compilable schema in the document.
func (s *Store) Has(ref string) bool {
	_, err := s.schemaFor(ref)
	return err == nil
}

// PrecompileRefs compiles every given reference, returning the first
// failure. Called at startup it turns defective references into load-time
// errors.
func (s *Store) PrecompileRefs(refs ...string) error {
	for _, ref := range refs {
		if _, err := s.schemaFor(ref); err != nil {
			return err
		}
	}
	return nil
}

// schemaFor returns the compiled schema for ref, compiling and caching it
// on first use.
func (s *Store) schemaFor(ref string) (*jsonschema.Schema, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, &operrors.SchemaParseError{Ref: ref, Cause: fmt.Errorf("reference must be a document fragment starting with #")}
	}
	if cached, ok := s.compiled.Load(ref); ok {
		return cached.(*jsonschema.Schema), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another goroutine may have compiled it while we waited.
	if cached, ok := s.compiled.Load(ref); ok {
		return cached.(*jsonschema.Schema), nil
	}
	schema, err := s.compiler.Compile(docURL + ref)
	if err != nil {
		return nil, &operrors.SchemaParseError{Ref: ref, Cause: err}
	}
	s.compiled.Store(ref, schema)
	return schema, nil
}

// toDetail converts the schema engine's error tree into the module's
// structured detail form.
func (s *Store) toDetail(verr *jsonschema.ValidationError) *operrors.SchemaDetail {
	if verr == nil {
		return nil
	}
	d := &operrors.SchemaDetail{
		Kind:         kindName(verr),
		Message:      verr.ErrorKind.LocalizedString(s.printer),
		SchemaPath:   verr.SchemaURL,
		InstancePath: issues.FormatPointer(verr.InstanceLocation...),
	}
	for _, cause := range verr.Causes {
		d.Causes = append(d.Causes, s.toDetail(cause))
	}
	return d
}

// kindName derives a short stable name for the violated keyword, e.g.
// "required" or "items/type".
func kindName(verr *jsonschema.ValidationError) string {
	if kp := verr.ErrorKind.KeywordPath(); len(kp) > 0 {
		return strings.Join(kp, "/")
	}
	return fmt.Sprintf("%v", verr.ErrorKind)
}
