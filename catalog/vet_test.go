package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcheck-dev/opcheck/operrors"
)

func TestVet(t *testing.T) {
	t.Run("fixture passes", func(t *testing.T) {
		c := loadFixture(t)
		require.NoError(t, c.Vet())
	})

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "empty catalog",
			yaml: `operations: []`,
			want: "no operations",
		},
		{
			name: "missing operation id",
			yaml: `
operations:
  - method: GET
    path: /pet
    params:
      - name: p
        in: query
        rules: [required]
`,
			want: "operation id",
		},
		{
			name: "duplicate operation id",
			yaml: `
operations:
  - id: dup
    params: [{name: p, in: query, rules: [required]}]
  - id: dup
    params: [{name: p, in: query, rules: [required]}]
`,
			want: "duplicate operation id",
		},
		{
			name: "operation without params or responses",
			yaml: `
operations:
  - id: empty
`,
			want: "neither params nor responses",
		},
		{
			name: "method without path",
			yaml: `
operations:
  - id: hint
    method: GET
    params: [{name: p, in: query, rules: [required]}]
`,
			want: "declared together",
		},
		{
			name: "unknown source",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: cookie, rules: [required]}]
`,
			want: "unknown source",
		},
		{
			name: "param without rules",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: query, rules: []}]
`,
			want: "no rules",
		},
		{
			name: "unknown rule kind",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: query, rules: [frobnicate]}]
`,
			want: `unknown rule kind "frobnicate"`,
		},
		{
			name: "unknown type name",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: query, rules: [{type: double}]}]
`,
			want: `unknown type name "double"`,
		},
		{
			name: "empty enum",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: query, rules: [{enum: []}]}]
`,
			want: "no members",
		},
		{
			name: "pattern does not compile",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: query, rules: [{pattern: '(unclosed'}]}]
`,
			want: "does not compile",
		},
		{
			name: "contradictory required pair",
			yaml: `
operations:
  - id: op
    params: [{name: p, in: query, rules: [required, not_required]}]
`,
			want: "both required and not_required",
		},
		{
			name: "invalid status selector",
			yaml: `
operations:
  - id: op
    responses: [{status: 999}]
`,
			want: "invalid status selector",
		},
		{
			name: "single shape without schema",
			yaml: `
operations:
  - id: op
    responses: [{status: 200, shape: single}]
`,
			want: "missing its schema name",
		},
		{
			name: "schema on bodyless shape",
			yaml: `
operations:
  - id: op
    responses: [{status: 200, shape: none, schema: Pet}]
`,
			want: "validates no body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			err = c.Vet()
			require.Error(t, err)
			assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVetErrorDefects(t *testing.T) {
	c, err := Parse([]byte(`
operations:
  - id: brokenOp
    params:
      - name: p
        in: cookie
        rules: [frobnicate]
  - id: emptyOp
`))
	require.NoError(t, err)

	err = c.Vet()
	require.Error(t, err)

	var vetErr *VetError
	require.ErrorAs(t, err, &vetErr)
	defects := vetErr.Defects()
	require.NotEmpty(t, defects)

	// Sorted by field path, nested findings addressed through their parents.
	fields := make([]string, 0, len(defects))
	for _, d := range defects {
		assert.NotEmpty(t, d.Field)
		assert.NotEmpty(t, d.Message)
		fields = append(fields, d.Field)
	}
	assert.IsIncreasing(t, fields)
	assert.Contains(t, fields, "emptyOp")

	joined := ""
	for _, d := range defects {
		joined += d.Field + ": " + d.Message + "\n"
	}
	assert.Contains(t, joined, "brokenOp.params.0")
	assert.Contains(t, joined, "unknown source")
	assert.Contains(t, joined, "neither params nor responses")
}
