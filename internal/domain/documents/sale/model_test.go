package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/id"
)

func TestCartLinePartitioning(t *testing.T) {
	sid := id.New()

	product := CartLine{Code: "PARA-500"}
	assert.False(t, product.IsService())

	svcLine := CartLine{Code: "SERVICE-" + sid.String()}
	assert.True(t, svcLine.IsService())

	parsed, err := svcLine.ServiceID()
	require.NoError(t, err)
	assert.Equal(t, sid, parsed)
}

func TestValidateCart(t *testing.T) {
	tests := []struct {
		name string
		cart []CartLine
		msg  string
	}{
		{name: "nil cart", cart: nil, msg: "cart is empty"},
		{name: "empty cart", cart: []CartLine{}, msg: "cart is empty"},
		{name: "missing code", cart: []CartLine{{Qty: 1}}, msg: "code is required"},
		{name: "zero qty", cart: []CartLine{{Code: "X", Qty: 0}}, msg: "quantity must be positive"},
		{name: "negative qty", cart: []CartLine{{Code: "X", Qty: -2}}, msg: "quantity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCart(tt.cart)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Message, tt.msg)
		})
	}
}

func TestCartLineMalformedServiceCode(t *testing.T) {
	line := CartLine{Code: "SERVICE-abc"}
	require.True(t, line.IsService())

	_, err := line.ServiceID()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "SERVICE-abc", appErr.Details["code"])
}
