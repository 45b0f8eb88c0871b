package mcpserver

import (
	"fmt"

	"github.com/opcheck-dev/opcheck/catalog"
	"github.com/opcheck-dev/opcheck/schemastore"
)

// maxInlineSize caps inline documents. Catalogs and schema documents are
// small; anything larger belongs on disk.
const maxInlineSize = 4 << 20

// catalogInput represents the two ways a rule catalog can be provided to a
// tool. Exactly one of File or Content must be set.
type catalogInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a catalog YAML file on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline catalog YAML content"`
}

// resolve parses the catalog from whichever input was provided. The result
// is parsed but not vetted; callers decide whether defects are the answer
// or an error.
func (c catalogInput) resolve() (*catalog.Catalog, error) {
	if err := exactlyOne("catalog", c.File, c.Content); err != nil {
		return nil, err
	}
	if c.Content != "" {
		if len(c.Content) > maxInlineSize {
			return nil, fmt.Errorf("inline catalog size %d bytes exceeds maximum %d bytes; use file input instead", len(c.Content), maxInlineSize)
		}
		return catalog.Parse([]byte(c.Content))
	}
	return catalog.LoadFile(c.File)
}

// schemaInput represents the two ways a schema document can be provided.
// Exactly one of File or Content must be set.
type schemaInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a JSON schema document on disk"`
	Content string `json:"content,omitempty" jsonschema:"Inline JSON schema document content"`
}

func (s schemaInput) resolve() (*schemastore.Store, error) {
	if err := exactlyOne("schema", s.File, s.Content); err != nil {
		return nil, err
	}
	if s.Content != "" {
		if len(s.Content) > maxInlineSize {
			return nil, fmt.Errorf("inline schema size %d bytes exceeds maximum %d bytes; use file input instead", len(s.Content), maxInlineSize)
		}
		return schemastore.LoadBytes([]byte(s.Content))
	}
	return schemastore.Load(s.File)
}

func exactlyOne(what, file, content string) error {
	count := 0
	if file != "" {
		count++
	}
	if content != "" {
		count++
	}
	if count != 1 {
		return fmt.Errorf("exactly one of %s file or content must be provided (got %d)", what, count)
	}
	return nil
}
