package internal

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

const priceSchema = `{
	"type": "object",
	"required": ["price"],
	"properties": {
		"price": {"type": "number", "minimum": 0}
	}
}`

func TestSchemaValidator_Validate(t *testing.T) {
	v := MustSchemaValidator(priceSchema)

	errs, err := v.Validate(`{"price": 10.5}`)
	require.NoError(t, err)
	require.Empty(t, errs)

	errs, err = v.Validate(`{}`)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	require.Equal(t, "price", errs[0].Details()["property"])

	errs, err = v.Validate(`{"price": -1}`)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	require.Equal(t, "price", errs[0].Field())
}

func TestNewSchemaValidator_InvalidSchema(t *testing.T) {
	_, err := NewSchemaValidator(`{"type": 12}`)
	require.Error(t, err)
	require.Panics(t, func() {
		MustSchemaValidator(`{"type": 12}`)
	})
}

func TestSchemaErrors(t *testing.T) {
	v := MustSchemaValidator(priceSchema)
	errs, err := v.Validate(`{}`)
	require.NoError(t, err)

	got := SchemaErrors(http.StatusBadRequest, errs)
	require.Equal(t, http.StatusBadRequest, got.StatusCode)
	require.Equal(t, `{"errors":["(root): price is required"]}`, got.Body)
}
