package shop

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotEnoughStock, KindOf(E(KindNotEnoughStock, "not enough stock")))
	assert.Equal(t, KindStorageFailed, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("placing order: %w", E(KindOrderNotFound, "order not found"))
	assert.Equal(t, KindOrderNotFound, KindOf(wrapped))
}

func TestIsKind(t *testing.T) {
	err := E(KindUnauthorized, "nope")
	assert.True(t, IsKind(err, KindUnauthorized))
	assert.False(t, IsKind(err, KindBadRequest))
	assert.False(t, IsKind(errors.New("boom"), KindUnauthorized))
}

func TestInvalidCarriesFields(t *testing.T) {
	err := Invalid(
		FieldError{Field: "items", Message: "must contain at least one item"},
	)
	assert.Equal(t, KindBadRequest, err.Kind)
	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "items", err.Fields[0].Field)
	assert.Contains(t, err.Error(), "BAD_REQUEST")
}
