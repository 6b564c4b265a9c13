package shop

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalMatches(t *testing.T) {
	assert.True(t, TotalMatches(40.00, 40.00))
	assert.True(t, TotalMatches(40.004, 40.00))
	assert.True(t, TotalMatches(39.99, 40.00))
	assert.False(t, TotalMatches(39.98, 40.00))
	assert.False(t, TotalMatches(41.00, 40.00))
}

func TestValidateItems(t *testing.T) {
	pid := uuid.NewString()

	err := validateItems(nil)
	require.NotNil(t, err)
	assert.Equal(t, "items", err.Fields[0].Field)

	err = validateItems([]ItemInput{{ProductID: "not-a-uuid", Qty: 1}})
	require.NotNil(t, err)
	assert.Equal(t, "items[0].product_id", err.Fields[0].Field)

	err = validateItems([]ItemInput{{ProductID: pid, Qty: 0}})
	require.NotNil(t, err)
	assert.Equal(t, "items[0].qty", err.Fields[0].Field)

	err = validateItems([]ItemInput{
		{ProductID: pid, Qty: 2},
		{ProductID: "bad", Qty: -1},
	})
	require.NotNil(t, err)
	assert.Len(t, err.Fields, 2)

	assert.Nil(t, validateItems([]ItemInput{{ProductID: pid, Qty: 3}}))
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := validateStruct(RegisterInput{Name: "Ana", Email: "not-an-email", Password: "short"})
	require.NotNil(t, err)
	assert.Equal(t, KindBadRequest, err.Kind)

	fields := map[string]string{}
	for _, f := range err.Fields {
		fields[f.Field] = f.Message
	}
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
}

func TestValidateStructOK(t *testing.T) {
	assert.Nil(t, validateStruct(RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "supersecret"}))
	assert.Nil(t, validateStruct(CreateProductInput{Name: "Mug", Price: 9.5, Stock: 10}))
}
