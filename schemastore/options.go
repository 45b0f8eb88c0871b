package schemastore

import (
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/opcheck-dev/opcheck/operrors"
)

// config holds the store configuration assembled from options.
type config struct {
	draft         *jsonschema.Draft
	assertFormat  bool
	assertContent bool
}

func defaultConfig() *config {
	return &config{draft: jsonschema.Draft2020}
}

// Option configures schema document loading.
type Option func(*config) error

// WithDraft sets the default schema draft version used for schemas that do
// not declare $schema themselves. Accepted versions: "4", "6", "7",
// "2019-09", "2020-12" (optionally prefixed with "draft-"). The default is
// "2020-12".
func WithDraft(version string) Option {
	return func(c *config) error {
		draft, err := parseDraft(version)
		if err != nil {
			return err
		}
		c.draft = draft
		return nil
	}
}

// WithAssertFormat enables assertion of "format" keywords during
// validation. By default formats are annotations only, matching recent
// draft semantics.
func WithAssertFormat() Option {
	return func(c *config) error {
		c.assertFormat = true
		return nil
	}
}

// WithAssertContent enables assertion of "contentEncoding" and
// "contentMediaType" keywords during validation.
func WithAssertContent() Option {
	return func(c *config) error {
		c.assertContent = true
		return nil
	}
}

func parseDraft(version string) (*jsonschema.Draft, error) {
	switch version {
	case "4", "draft-04", "draft4":
		return jsonschema.Draft4, nil
	case "6", "draft-06", "draft6":
		return jsonschema.Draft6, nil
	case "7", "draft-07", "draft7":
		return jsonschema.Draft7, nil
	case "2019", "2019-09", "draft-2019-09":
		return jsonschema.Draft2019, nil
	case "2020", "2020-12", "draft-2020-12", "":
		return jsonschema.Draft2020, nil
	default:
		return nil, &operrors.ConfigError{
			Option:  "WithDraft",
			Value:   version,
			Message: "unsupported draft version; expected one of 4, 6, 7, 2019-09, 2020-12",
		}
	}
}
