package opcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opcheck-dev/opcheck/operrors"
)

const validPetJSON = `{"name":"rex","photoUrls":["https://img.example/rex.png"]}`

func TestValidateResponseSingle(t *testing.T) {
	v := newTestValidator(t)

	t.Run("conforming body passes", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 200, []byte(validPetJSON))
		require.NoError(t, err)
		defer result.Release()

		assert.True(t, result.Valid)
		assert.True(t, result.Matched)
		assert.Equal(t, 200, result.Status)
		assert.Empty(t, result.Issues)
	})

	t.Run("nonconforming body reports a warning issue", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 200, []byte(`{"photoUrls":[]}`))
		require.NoError(t, err)
		defer result.Release()

		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Equal(t, "schema", result.Issues[0].Rule)
		assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
		assert.Contains(t, result.Issues[0].Message, "Pet")
	})

	t.Run("empty body violates the promised contract", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 200, nil)
		require.NoError(t, err)
		defer result.Release()

		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Contains(t, result.Issues[0].Message, "empty")
	})

	t.Run("undecodable body reports the decode failure", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 200, []byte(`{oops`))
		require.NoError(t, err)
		defer result.Release()

		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Contains(t, result.Issues[0].Message, "decoded")
	})
}

// A two-element list with one invalid element yields exactly one failing
// outcome at the correct index.
func TestValidateResponseList(t *testing.T) {
	v := newTestValidator(t)

	t.Run("mixed list reports per-element outcomes", func(t *testing.T) {
		body := `[` + validPetJSON + `,{"id":3}]`
		result, err := v.ValidateResponse("findPetsByStatus", 200, []byte(body))
		require.NoError(t, err)
		defer result.Release()

		assert.False(t, result.Valid)
		require.Len(t, result.Elements, 2)

		assert.True(t, result.Elements[0].Valid)
		assert.Equal(t, 0, result.Elements[0].Index)
		assert.Empty(t, result.Elements[0].Issues)

		assert.False(t, result.Elements[1].Valid)
		assert.Equal(t, 1, result.Elements[1].Index)
		require.NotEmpty(t, result.Elements[1].Issues)
		assert.Equal(t, "schema", result.Elements[1].Issues[0].Rule)
		assert.Equal(t, SeverityWarning, result.Elements[1].Issues[0].Severity)
	})

	t.Run("fully conforming list passes", func(t *testing.T) {
		body := `[` + validPetJSON + `,` + validPetJSON + `]`
		result, err := v.ValidateResponse("findPetsByStatus", 200, []byte(body))
		require.NoError(t, err)
		defer result.Release()

		assert.True(t, result.Valid)
		require.Len(t, result.Elements, 2)
		for _, e := range result.Elements {
			assert.True(t, e.Valid)
		}
	})

	t.Run("empty list passes with no outcomes", func(t *testing.T) {
		result, err := v.ValidateResponse("findPetsByStatus", 200, []byte(`[]`))
		require.NoError(t, err)
		defer result.Release()

		assert.True(t, result.Valid)
		assert.Empty(t, result.Elements)
	})

	t.Run("non-array body violates the list contract", func(t *testing.T) {
		result, err := v.ValidateResponse("findPetsByStatus", 200, []byte(`{"count":2}`))
		require.NoError(t, err)
		defer result.Release()

		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.Contains(t, result.Issues[0].Message, "not an array")
	})

	t.Run("empty body violates the list contract", func(t *testing.T) {
		result, err := v.ValidateResponse("findPetsByStatus", 200, []byte{})
		require.NoError(t, err)
		defer result.Release()

		assert.False(t, result.Valid)
		assert.Contains(t, result.Issues[0].Message, "empty")
	})
}

// Selection precedence is exact status, then class pattern, then catch-all;
// statuses no selector covers pass unconditionally.
func TestValidateResponseContractSelection(t *testing.T) {
	v := newTestValidator(t)

	t.Run("exact selector wins", func(t *testing.T) {
		// 200 hits the single-Pet contract, not 2XX or the catch-all.
		result, err := v.ValidateResponse("getPetById", 200, nil)
		require.NoError(t, err)
		defer result.Release()
		assert.False(t, result.Valid, "the exact contract demands a body")
	})

	t.Run("class pattern covers its range", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 404, nil)
		require.NoError(t, err)
		defer result.Release()
		assert.True(t, result.Valid)
		assert.True(t, result.Matched)
	})

	t.Run("catch-all covers the rest", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 503, nil)
		require.NoError(t, err)
		defer result.Release()
		assert.True(t, result.Valid)
		assert.True(t, result.Matched)
	})

	t.Run("uncovered status passes without matching", func(t *testing.T) {
		// findPetsByStatus declares only an exact 200 contract.
		result, err := v.ValidateResponse("findPetsByStatus", 503, []byte(`ignored`))
		require.NoError(t, err)
		defer result.Release()
		assert.True(t, result.Valid)
		assert.False(t, result.Matched)
		assert.Empty(t, result.Issues)
	})

	t.Run("class-only contract", func(t *testing.T) {
		covered, err := v.ValidateResponse("getInventory", 204, nil)
		require.NoError(t, err)
		defer covered.Release()
		assert.True(t, covered.Valid)
		assert.True(t, covered.Matched)

		uncovered, err := v.ValidateResponse("getInventory", 404, nil)
		require.NoError(t, err)
		defer uncovered.Release()
		assert.False(t, uncovered.Matched)
	})

	t.Run("shape none ignores the body entirely", func(t *testing.T) {
		result, err := v.ValidateResponse("getPetById", 404, []byte(`{not json`))
		require.NoError(t, err)
		defer result.Release()
		assert.True(t, result.Valid)
	})
}

func TestValidateResponseUnknownOperation(t *testing.T) {
	v := newTestValidator(t)

	result, err := v.ValidateResponse("teleportPet", 200, nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, operrors.ErrUnknownOperation)
	assert.ErrorIs(t, err, operrors.ErrCatalogDefect)
}

// Operations without declared contracts pass every status.
func TestValidateResponseNoContracts(t *testing.T) {
	v := newTestValidator(t)

	result, err := v.ValidateResponse("previewPet", 500, []byte(`anything`))
	require.NoError(t, err)
	defer result.Release()
	assert.True(t, result.Valid)
	assert.False(t, result.Matched)
}
