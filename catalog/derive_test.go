package catalog

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deriveFixture(t *testing.T) *Catalog {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile("testdata/petstore_openapi.yaml")
	require.NoError(t, err)
	require.NoError(t, doc.Validate(loader.Context))

	c, err := Derive(doc)
	require.NoError(t, err)
	return c
}

func TestDerive(t *testing.T) {
	c := deriveFixture(t)

	t.Run("derived catalog passes vet", func(t *testing.T) {
		require.NoError(t, c.Vet())
	})

	t.Run("operations follow path order", func(t *testing.T) {
		assert.Equal(t, []string{
			"findPetsByStatus",
			"getPetById",
			"getStoreInventory",
			"placeOrder",
			"getUserByName",
		}, c.OperationIDs())
	})

	t.Run("path params are required with schema rules in canonical order", func(t *testing.T) {
		p, ok := c.Param("getPetById", "petId")
		require.True(t, ok)
		assert.Equal(t, SourcePath, p.Source)

		require.Len(t, p.Rules, 3)
		assert.Equal(t, KindRequired, p.Rules[0].Kind)
		assert.Equal(t, KindType, p.Rules[1].Kind)
		assert.Equal(t, TypeInteger, p.Rules[1].Type)
		assert.Equal(t, KindMin, p.Rules[2].Kind)
		require.NotNil(t, p.Rules[2].Bound)
		assert.Equal(t, 1.0, *p.Rules[2].Bound)
	})

	t.Run("optional query param carries enum", func(t *testing.T) {
		p, ok := c.Param("findPetsByStatus", "status")
		require.True(t, ok)
		require.Len(t, p.Rules, 3)
		assert.Equal(t, KindNotRequired, p.Rules[0].Kind)
		assert.Equal(t, TypeString, p.Rules[1].Type)
		assert.Equal(t, []string{"available", "pending", "sold"}, p.Rules[2].Enum)
	})

	t.Run("exclusive bound maps to exclusive_min", func(t *testing.T) {
		p, ok := c.Param("findPetsByStatus", "limit")
		require.True(t, ok)
		require.Len(t, p.Rules, 4)
		assert.Equal(t, KindExclusiveMin, p.Rules[2].Kind)
		assert.Equal(t, 0.0, *p.Rules[2].Bound)
		assert.Equal(t, KindMax, p.Rules[3].Kind)
		assert.Equal(t, 100.0, *p.Rules[3].Bound)
	})

	t.Run("length and pattern rules", func(t *testing.T) {
		p, ok := c.Param("getUserByName", "username")
		require.True(t, ok)
		require.Len(t, p.Rules, 5)
		assert.Equal(t, KindMinLength, p.Rules[2].Kind)
		assert.Equal(t, 3, *p.Rules[2].Length)
		assert.Equal(t, KindMaxLength, p.Rules[3].Kind)
		assert.Equal(t, 32, *p.Rules[3].Length)
		assert.Equal(t, KindPattern, p.Rules[4].Kind)
		assert.Equal(t, "^[a-zA-Z0-9]+$", p.Rules[4].Pattern)
	})

	t.Run("header param keeps its wire name", func(t *testing.T) {
		p, ok := c.Param("getUserByName", "X-Client-Version")
		require.True(t, ok)
		assert.Equal(t, SourceHeader, p.Source)
	})

	t.Run("json body becomes a schema-ruled body param", func(t *testing.T) {
		p, ok := c.Param("placeOrder", "Order")
		require.True(t, ok)
		assert.Equal(t, SourceBody, p.Source)
		require.Len(t, p.Rules, 2)
		assert.Equal(t, KindRequired, p.Rules[0].Kind)
		assert.Equal(t, KindSchema, p.Rules[1].Kind)
	})

	t.Run("ref response becomes a single contract", func(t *testing.T) {
		op, ok := c.Operation("getPetById")
		require.True(t, ok)
		require.Len(t, op.Responses, 2)
		assert.Equal(t, StatusSelector("200"), op.Responses[0].Status)
		assert.Equal(t, ShapeSingle, op.Responses[0].Shape)
		assert.Equal(t, "Pet", op.Responses[0].Schema)
		assert.True(t, op.Responses[1].Status.IsDefault())
		assert.Equal(t, ShapeNone, op.Responses[1].Shape)
	})

	t.Run("array of refs becomes a list contract", func(t *testing.T) {
		op, ok := c.Operation("findPetsByStatus")
		require.True(t, ok)
		require.Len(t, op.Responses, 1)
		assert.Equal(t, ShapeList, op.Responses[0].Shape)
		assert.Equal(t, "Pet", op.Responses[0].Schema)
	})

	t.Run("unreferenceable body means no contract validation", func(t *testing.T) {
		op, ok := c.Operation("getStoreInventory")
		require.True(t, ok)
		require.Len(t, op.Responses, 1)
		assert.Equal(t, ShapeNone, op.Responses[0].Shape)
		assert.Empty(t, op.Responses[0].Schema)
	})

	t.Run("missing operationId is synthesized from method and path", func(t *testing.T) {
		op, ok := c.Operation("getStoreInventory")
		require.True(t, ok)
		assert.Equal(t, "GET", op.Method)
		assert.Equal(t, "/store/inventory", op.Path)
	})

	t.Run("nil document is refused", func(t *testing.T) {
		_, err := Derive(nil)
		require.Error(t, err)
	})
}
