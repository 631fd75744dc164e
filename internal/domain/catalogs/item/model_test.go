package item

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
	"clinipos/internal/core/types"
)

func validItem() *Item {
	it := New("PARA-500", "Paracetamol 500mg", CategoryProduct)
	it.Brand = "Pharma Co"
	it.CostUnit = types.MustMoney("10")
	it.SellingPrice = types.MustMoney("15")
	it.Quantity = 5
	it.Expiry = time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	return it
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Item)
		field   string
		wantErr bool
	}{
		{name: "valid", mutate: func(i *Item) {}},
		{name: "missing code", mutate: func(i *Item) { i.Code = "" }, field: "code", wantErr: true},
		{name: "reserved prefix", mutate: func(i *Item) { i.Code = "SERVICE-123" }, field: "code", wantErr: true},
		{name: "missing brand", mutate: func(i *Item) { i.Brand = "" }, field: "brand", wantErr: true},
		{name: "bad category", mutate: func(i *Item) { i.Category = "Gadget" }, field: "category", wantErr: true},
		{name: "negative cost", mutate: func(i *Item) { i.CostUnit = types.MustMoney("-1") }, field: "costUnit", wantErr: true},
		{name: "zero selling price", mutate: func(i *Item) { i.SellingPrice = types.Zero() }, field: "sellingPrice", wantErr: true},
		{name: "negative quantity", mutate: func(i *Item) { i.Quantity = -1 }, field: "quantity", wantErr: true},
		{name: "zero expiry", mutate: func(i *Item) { i.Expiry = time.Time{} }, field: "expiry", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := validItem()
			tt.mutate(it)

			err := it.Validate(context.Background())
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestItemHasLogo(t *testing.T) {
	it := validItem()
	assert.False(t, it.HasLogo())

	empty := ""
	it.LogoRef = &empty
	assert.False(t, it.HasLogo())

	ref := "assets/para.png"
	it.LogoRef = &ref
	assert.True(t, it.HasLogo())
}
